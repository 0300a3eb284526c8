package scan

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arnavs06/HackNYU/internal/models"
	"github.com/arnavs06/HackNYU/internal/recommend"
)

// sourceAlternatives finds candidates for the garment and extracts their
// attributes. Visual search is used when configured, the curated catalog
// otherwise. A failed search yields no candidates; a failed or late
// enrichment leaves that candidate's attributes nil.
func (s *Service) sourceAlternatives(ctx context.Context, image []byte) ([]recommend.Extracted, error) {
	if s.sourcer == nil {
		return s.catalogCandidates(), nil
	}

	candidates, err := s.sourcer.Search(ctx, image)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("candidate search failed", "error", err)
		return nil, nil
	}
	return s.enrich(ctx, candidates)
}

func (s *Service) catalogCandidates() []recommend.Extracted {
	if s.catalog == nil {
		return nil
	}
	items := s.catalog.Items()
	out := make([]recommend.Extracted, 0, len(items))
	for _, it := range items {
		attrs := it.Attributes()
		out = append(out, recommend.Extracted{Candidate: it.Candidate(), Attributes: &attrs})
	}
	return out
}

// enrich fetches each candidate's product page and extracts its attributes,
// at most cfg.Concurrency at a time and within cfg.EnrichTimeout overall.
func (s *Service) enrich(ctx context.Context, candidates []models.Candidate) ([]recommend.Extracted, error) {
	out := make([]recommend.Extracted, len(candidates))
	for i, c := range candidates {
		out[i].Candidate = c
	}
	if s.fetcher == nil {
		return out, nil
	}

	enrichCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.cfg.EnrichTimeout > 0 {
		enrichCtx, cancel = context.WithTimeout(ctx, s.cfg.EnrichTimeout)
	}
	defer cancel()

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i := range out {
		if out[i].Candidate.URL == "" {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			attrs, err := s.extractCandidate(enrichCtx, out[i].Candidate)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Debug("candidate enrichment failed", "url", out[i].Candidate.URL, "error", err)
				return nil
			}
			out[i].Attributes = &attrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) extractCandidate(ctx context.Context, c models.Candidate) (models.RawAttributes, error) {
	page, err := s.fetcher.Fetch(ctx, c.URL)
	if err != nil {
		return models.RawAttributes{}, err
	}
	if page.Title == "" {
		page.Title = c.Title
	}
	attrs, err := s.model.ExtractProduct(ctx, page)
	if err != nil {
		return models.RawAttributes{}, fmt.Errorf("extract %s: %w", c.URL, err)
	}
	if attrs.Brand == "" {
		attrs.Brand = c.Brand
	}
	return attrs, nil
}
