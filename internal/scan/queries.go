package scan

import (
	"context"
	"fmt"

	"github.com/arnavs06/HackNYU/internal/database"
	"github.com/arnavs06/HackNYU/internal/models"
	"github.com/arnavs06/HackNYU/internal/recommend"
)

// History returns a user's most recent scans, newest first
func (s *Service) History(ctx context.Context, userID string, limit int) ([]models.ScanResult, error) {
	history, err := s.store.GetHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	for i := range history {
		s.resolveImage(ctx, &history[i])
	}
	return history, nil
}

// Get returns a scan by id
func (s *Service) Get(ctx context.Context, id string) (*models.ScanResult, error) {
	scan, err := s.store.GetScan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}
	if scan == nil {
		return nil, ErrNotFound
	}
	s.resolveImage(ctx, scan)
	return scan, nil
}

// Delete removes a scan by id
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteScan(ctx, id)
	if err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.logger.Info("scan deleted", "id", id)
	return nil
}

// Stats summarizes a user's full history
func (s *Service) Stats(ctx context.Context, userID string) (models.ScanStats, error) {
	history, err := s.store.GetHistory(ctx, userID, 0)
	if err != nil {
		return models.ScanStats{}, fmt.Errorf("load history: %w", err)
	}
	return database.ComputeStats(history), nil
}

// Picks is a personalized recommendation set
type Picks struct {
	Profile     models.PreferenceProfile `json:"profile"`
	ReferenceID string                   `json:"referenceId"`
	Picks       []models.Candidate       `json:"picks"`
}

// Picks ranks the curated catalog and the alternatives of one reference
// scan against the user's preference profile. rotation selects the
// reference scan, so repeated calls with different values vary the result.
func (s *Service) Picks(ctx context.Context, userID string, rotation int) (*Picks, error) {
	history, err := s.store.GetHistory(ctx, userID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(history) < s.cfg.MinHistory {
		return nil, fmt.Errorf("%w: have %d scans, need %d", ErrInsufficientHistory, len(history), s.cfg.MinHistory)
	}

	// Older scans may carry only the material text.
	for i := range history {
		if len(history[i].Fibers) == 0 {
			history[i].Fibers = s.calc.Table().FiberKeys(history[i].Material)
		}
	}
	profile := recommend.Derive(history)
	summary, err := s.model.SummarizeStyle(ctx, history)
	if err != nil {
		s.logger.Warn("style summary failed", "error", err)
	}
	profile.StyleSummary = summary

	reference, _ := recommend.SelectReference(history, rotation)
	pool := recommend.ScoreAll(s.calc, s.catalogCandidates())
	pool = append(pool, reference.SimilarProducts...)

	return &Picks{
		Profile:     profile,
		ReferenceID: reference.ID,
		Picks:       recommend.Rank(reference.EcoScore, pool, &profile, recommend.PicksLimit),
	}, nil
}
