// Package sourcing finds candidate products for a scanned garment and reads
// their product pages. Candidates come from Lykdat visual search or from the
// curated catalog.
package sourcing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/logging"
	"github.com/arnavs06/HackNYU/internal/models"
)

// DefaultConfidence is reported when tagging detected no items.
const DefaultConfidence = 0.85

// maxSearchResults is the most results a global search may keep.
const maxSearchResults = 40

// Lykdat calls the Lykdat deep tagging and global search APIs
type Lykdat struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
	logger     *slog.Logger
}

// NewLykdat creates a Lykdat client from cfg
func NewLykdat(cfg config.LykdatConfig, logger *slog.Logger) *Lykdat {
	if logger == nil {
		logger = logging.Discard()
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 || maxResults > maxSearchResults {
		maxResults = maxSearchResults
	}
	return &Lykdat{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxResults: maxResults,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("component", "lykdat"),
	}
}

// DetectedItem is a garment found by deep tagging
type DetectedItem struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Label is a named tag with a confidence, used for colors and labels
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// TagResult is the useful part of a deep tagging response
type TagResult struct {
	Items  []DetectedItem `json:"items"`
	Colors []Label        `json:"colors"`
	Labels []Label        `json:"labels"`
}

// Confidence is the mean item confidence, or DefaultConfidence without items.
func (r TagResult) Confidence() float64 {
	if len(r.Items) == 0 {
		return DefaultConfidence
	}
	sum := 0.0
	for _, it := range r.Items {
		sum += it.Confidence
	}
	return sum / float64(len(r.Items))
}

// MainItem returns the detected item with the highest confidence.
func (r TagResult) MainItem() (DetectedItem, bool) {
	if len(r.Items) == 0 {
		return DetectedItem{}, false
	}
	best := r.Items[0]
	for _, it := range r.Items[1:] {
		if it.Confidence > best.Confidence {
			best = it
		}
	}
	return best, true
}

// Attributes maps the main garment to attributes. Tagging never reveals
// composition or origin, so only the name and item type are set.
func (r TagResult) Attributes() models.RawAttributes {
	main, ok := r.MainItem()
	if !ok {
		return models.RawAttributes{}
	}
	itemType := main.Category
	if itemType == "" {
		itemType = main.Name
	}
	return models.RawAttributes{ProductName: main.Name, ItemType: itemType}
}

// DeepTag detects garments, colors and labels in image
func (l *Lykdat) DeepTag(ctx context.Context, image []byte) (TagResult, error) {
	var envelope struct {
		Data *TagResult `json:"data"`
		TagResult
	}
	err := l.post(ctx, "/detection/tags", image, nil, func(req *http.Request) {
		req.Header.Set("x-api-key", l.apiKey)
	}, &envelope)
	if err != nil {
		return TagResult{}, fmt.Errorf("deep tagging failed: %w", err)
	}
	if envelope.Data != nil {
		return *envelope.Data, nil
	}
	return envelope.TagResult, nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

type similarProduct struct {
	Name        string     `json:"name"`
	BrandName   string     `json:"brand_name"`
	Price       flexString `json:"price"`
	Currency    string     `json:"currency"`
	URL         string     `json:"url"`
	Score       float64    `json:"score"`
	Category    string     `json:"category"`
	SubCategory string     `json:"sub_category"`
	Gender      string     `json:"gender"`
	Vendor      string     `json:"vendor"`
	Images      []string   `json:"images"`
	MatchingImg string     `json:"matching_image"`
}

type searchData struct {
	ResultGroups []struct {
		SimilarProducts []similarProduct `json:"similar_products"`
	} `json:"result_groups"`
}

// Search runs a global visual search and returns the most similar products
// as unscored candidates, best match first.
func (l *Lykdat) Search(ctx context.Context, image []byte) ([]models.Candidate, error) {
	var envelope struct {
		Data *searchData `json:"data"`
		searchData
	}
	fields := map[string]string{"api_key": l.apiKey}
	if err := l.post(ctx, "/global/search", image, fields, nil, &envelope); err != nil {
		return nil, fmt.Errorf("global search failed: %w", err)
	}
	data := envelope.searchData
	if envelope.Data != nil {
		data = *envelope.Data
	}

	candidates := flattenResults(data, l.maxResults)
	l.logger.Debug("global search complete", "results", len(candidates))
	return candidates, nil
}

func flattenResults(data searchData, limit int) []models.Candidate {
	var products []similarProduct
	for _, group := range data.ResultGroups {
		products = append(products, group.SimilarProducts...)
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Score > products[j].Score
	})
	if len(products) > limit {
		products = products[:limit]
	}

	out := make([]models.Candidate, 0, len(products))
	for i, p := range products {
		title := strings.TrimSpace(p.Name)
		if title == "" {
			title = "Similar Item " + strconv.Itoa(i+1)
		}
		var notes []string
		for _, kv := range [][2]string{
			{"gender", p.Gender}, {"category", p.Category},
			{"sub_category", p.SubCategory}, {"vendor", p.Vendor},
		} {
			if kv[1] != "" {
				notes = append(notes, kv[0]+": "+kv[1])
			}
		}
		image := p.MatchingImg
		if image == "" && len(p.Images) > 0 {
			image = p.Images[0]
		}
		out = append(out, models.Candidate{
			ID:          fmt.Sprintf("similar_%d", i+1),
			Title:       title,
			Brand:       p.BrandName,
			URL:         p.URL,
			Price:       string(p.Price),
			Currency:    p.Currency,
			Description: truncate(strings.Join(notes, "; "), 100),
			Category:    p.Category,
			ImageURL:    image,
			Similarity:  p.Score,
		})
	}
	return out
}

func (l *Lykdat) post(ctx context.Context, path string, image []byte, fields map[string]string, decorate func(*http.Request), out any) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("image", "image.jpg")
	if err != nil {
		return err
	}
	if _, err := part.Write(image); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if decorate != nil {
		decorate(req)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(payload), 200))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
