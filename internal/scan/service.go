// Package scan orchestrates a clothing scan: tag extraction, scoring,
// alternative sourcing and persistence. It also serves history, stats and
// personalized picks on top of the scan store.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/database"
	"github.com/arnavs06/HackNYU/internal/ecoscore"
	"github.com/arnavs06/HackNYU/internal/logging"
	"github.com/arnavs06/HackNYU/internal/ml"
	"github.com/arnavs06/HackNYU/internal/models"
	"github.com/arnavs06/HackNYU/internal/recommend"
	"github.com/arnavs06/HackNYU/internal/sourcing"
	"github.com/arnavs06/HackNYU/internal/storage"
)

// DefaultUserID owns scans submitted without a user.
const DefaultUserID = "demo-user"

var (
	// ErrNotFound is returned when a scan id does not exist.
	ErrNotFound = errors.New("scan not found")
	// ErrInsufficientHistory is returned when picks are requested before the
	// user has enough scans.
	ErrInsufficientHistory = errors.New("insufficient scan history")
	// ErrInvalidRequest is returned for requests missing required input.
	ErrInvalidRequest = errors.New("invalid request")
)

// Tagger detects garments in a photo
type Tagger interface {
	DeepTag(ctx context.Context, image []byte) (sourcing.TagResult, error)
}

// Sourcer finds products that look like a photo
type Sourcer interface {
	Search(ctx context.Context, image []byte) ([]models.Candidate, error)
}

// PageFetcher reads a product page
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (ml.ProductPage, error)
}

// Deps wires the collaborators of a Service. Model, Store and Calculator
// are required; the rest are skipped when nil.
type Deps struct {
	Model      ml.Model
	OCR        ml.OCR
	Tagger     Tagger
	Sourcer    Sourcer
	Fetcher    PageFetcher
	Catalog    *sourcing.Catalog
	Store      database.DB
	Images     storage.ImageStore
	Calculator *ecoscore.Calculator
	Logger     *slog.Logger
	Config     config.ScanConfig
}

// Service implements the scan workflow
type Service struct {
	model   ml.Model
	ocr     ml.OCR
	tagger  Tagger
	sourcer Sourcer
	fetcher PageFetcher
	catalog *sourcing.Catalog
	store   database.DB
	images  storage.ImageStore
	calc    *ecoscore.Calculator
	logger  *slog.Logger
	cfg     config.ScanConfig
	now     func() time.Time
}

// NewService constructs the scan service
func NewService(deps Deps) (*Service, error) {
	if deps.Model == nil || deps.Store == nil {
		return nil, fmt.Errorf("scan service needs a model and a store")
	}
	if deps.Calculator == nil {
		deps.Calculator = ecoscore.NewCalculator(nil)
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	cfg := deps.Config
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MinHistory < 1 {
		cfg.MinHistory = 3
	}
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = 50
	}
	return &Service{
		model:   deps.Model,
		ocr:     deps.OCR,
		tagger:  deps.Tagger,
		sourcer: deps.Sourcer,
		fetcher: deps.Fetcher,
		catalog: deps.Catalog,
		store:   deps.Store,
		images:  deps.Images,
		calc:    deps.Calculator,
		logger:  deps.Logger.With("component", "scan"),
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Request is one scan submission
type Request struct {
	UserID        string
	TagImage      []byte
	ClothingImage []byte
}

// Scan runs the full pipeline for req and persists the result
func (s *Service) Scan(ctx context.Context, req Request) (*models.ScanResult, error) {
	if len(req.TagImage) == 0 {
		return nil, fmt.Errorf("%w: tag image is required", ErrInvalidRequest)
	}
	garment := req.ClothingImage
	if len(garment) == 0 {
		garment = req.TagImage
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = DefaultUserID
	}
	start := s.now()

	attrs := s.extractTag(ctx, req.TagImage)
	confidence := sourcing.DefaultConfidence
	if s.tagger != nil {
		tags, err := s.tagger.DeepTag(ctx, garment)
		if err != nil {
			s.logger.Warn("garment tagging failed", "error", err)
		} else {
			attrs = mergeAttributes(attrs, tags.Attributes())
			confidence = tags.Confidence()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assessment := s.calc.Assess(attrs)

	extracted, err := s.sourceAlternatives(ctx, garment)
	if err != nil {
		return nil, err
	}
	alternatives := recommend.Rank(assessment.EcoScore,
		recommend.ScoreAll(s.calc, extracted), nil, recommend.AlternativesLimit)

	material := ecoscore.FormatComposition(attrs.Composition)
	country := strings.TrimSpace(attrs.Origin)
	if assessment.OriginKnown {
		country = assessment.Country
	}

	explanation := s.explain(ctx, ml.ExplainInput{
		Score:          assessment.Score,
		Grade:          assessment.Grade,
		Material:       material,
		Origin:         country,
		Certifications: attrs.Certifications,
		Brand:          attrs.Brand,
		ProductName:    attrs.ProductName,
		Flags:          assessment.Flags,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	certs := attrs.Certifications
	if certs == nil {
		certs = []string{}
	}
	result := &models.ScanResult{
		ID:              uuid.NewString(),
		UserID:          userID,
		Timestamp:       start,
		Material:        orUnknown(material),
		Country:         orUnknown(country),
		Brand:           attrs.Brand,
		ProductName:     attrs.ProductName,
		Certifications:  certs,
		Fibers:          knownFibers(assessment.Fibers),
		EcoScore:        assessment.EcoScore,
		Explanation:     explanation,
		Confidence:      confidence,
		ImprovementTips: ecoscore.Tips(assessment),
		SimilarProducts: alternatives,
	}

	if err := s.store.SaveScan(ctx, result); err != nil {
		return nil, fmt.Errorf("save scan: %w", err)
	}
	s.storeImage(ctx, result, garment)

	s.logger.Info("scan complete",
		"id", result.ID,
		"user", userID,
		"score", result.EcoScore.Score,
		"grade", result.EcoScore.Grade,
		"alternatives", len(alternatives),
		"duration", s.now().Sub(start))
	return result, nil
}

// extractTag reads the tag. Any failure yields empty attributes, which score
// neutral.
func (s *Service) extractTag(ctx context.Context, image []byte) models.RawAttributes {
	var text string
	if s.ocr != nil {
		t, err := s.ocr.ReadText(ctx, image)
		if err != nil {
			s.logger.Warn("tag OCR failed", "error", err)
		}
		text = t
	}

	attrs, err := s.model.ExtractTag(ctx, image, text)
	if err != nil {
		s.logger.Warn("tag extraction failed", "error", err)
		return models.RawAttributes{}
	}
	if attrs.IsEmpty() {
		s.logger.Warn("tag extraction yielded nothing to score")
	}
	return attrs
}

func (s *Service) explain(ctx context.Context, in ml.ExplainInput) string {
	text, err := s.model.Explain(ctx, in)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Warn("explanation failed, using template", "error", err)
		}
		return ml.FallbackExplanation(in)
	}
	return text
}

func (s *Service) storeImage(ctx context.Context, result *models.ScanResult, image []byte) {
	if s.images == nil {
		return
	}
	key, err := s.images.Put(ctx, storage.ScanImageKey(result.ID), image, "image/jpeg")
	if err != nil {
		s.logger.Warn("image upload failed", "id", result.ID, "error", err)
		return
	}
	if err := s.store.UpdateImageURI(ctx, result.ID, key); err != nil {
		s.logger.Warn("image uri backfill failed", "id", result.ID, "error", err)
		return
	}
	result.ImageURI = key
	s.resolveImage(ctx, result)
}

// resolveImage swaps the stored object key for a fetchable URL. Stores keep
// the key because presigned URLs expire.
func (s *Service) resolveImage(ctx context.Context, result *models.ScanResult) {
	if s.images == nil || result.ImageURI == "" || strings.Contains(result.ImageURI, "://") {
		return
	}
	url, err := s.images.URL(ctx, result.ImageURI)
	if err != nil {
		s.logger.Warn("image url signing failed", "id", result.ID, "error", err)
		return
	}
	result.ImageURI = url
}

// mergeAttributes lays tag-derived attributes over garment tagging. Tag
// fields win; garment tagging only fills gaps.
func mergeAttributes(tag, garment models.RawAttributes) models.RawAttributes {
	out := tag
	if out.ProductName == "" {
		out.ProductName = garment.ProductName
	}
	if out.ItemType == "" {
		out.ItemType = garment.ItemType
	}
	if out.Brand == "" {
		out.Brand = garment.Brand
	}
	if out.Origin == "" {
		out.Origin = garment.Origin
	}
	if len(out.Composition) == 0 {
		out.Composition = garment.Composition
	}
	seen := make(map[string]bool, len(out.Certifications))
	certs := make([]string, 0, len(out.Certifications)+len(garment.Certifications))
	for _, c := range append(append([]string(nil), out.Certifications...), garment.Certifications...) {
		if key := strings.ToLower(c); !seen[key] {
			seen[key] = true
			certs = append(certs, c)
		}
	}
	out.Certifications = certs
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func knownFibers(fibers []ecoscore.WeightedFiber) []string {
	var keys []string
	for _, f := range fibers {
		if f.Known {
			keys = append(keys, f.Key)
		}
	}
	return keys
}
