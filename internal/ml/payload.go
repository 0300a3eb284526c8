package ml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/arnavs06/HackNYU/internal/ecoscore"
	"github.com/arnavs06/HackNYU/internal/models"
)

// looseString accepts a JSON string, number or null.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = looseString(num.String())
	return nil
}

// looseStrings accepts a JSON list of strings, a single string or null.
type looseStrings []string

func (l *looseStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []looseString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			if it != "" {
				out = append(out, string(it))
			}
		}
		*l = out
		return nil
	}
	var one looseString
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one == "" {
		*l = nil
		return nil
	}
	*l = strings.Split(string(one), ",")
	return nil
}

// looseNumber accepts a JSON number, a numeric string such as "80%", or null.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	clean := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(string(s)), "%"))
	if clean == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(clean, ",", "."), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = looseNumber(v)
	return nil
}

type fiberPayload struct {
	Material   looseString `json:"material"`
	Percentage looseNumber `json:"percentage"`
}

// attributePayload is the loose JSON shape returned by the generative model
// for both tags and product pages.
type attributePayload struct {
	Brand               looseString    `json:"brand"`
	ProductName         looseString    `json:"product_name"`
	MaterialComposition []fiberPayload `json:"material_composition"`
	Materials           looseStrings   `json:"materials"`
	MadeIn              looseString    `json:"made_in"`
	CountryOfOrigin     looseString    `json:"country_of_origin"`
	Origin              looseString    `json:"origin"`
	Certifications      looseStrings   `json:"certifications"`
	Price               looseString    `json:"price"`
	Currency            looseString    `json:"currency"`
	EcoNotes            looseString    `json:"eco_notes"`
}

var madeInPrefix = regexp.MustCompile(`(?i)^\s*(made|manufactured|produced|assembled)\s+in\s+`)

// decodePayload extracts the JSON object from a model reply, tolerating code
// fences and surrounding prose.
func decodePayload(text string) (attributePayload, error) {
	var p attributePayload
	raw := strings.TrimSpace(text)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return p, fmt.Errorf("no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil {
		return p, fmt.Errorf("failed to parse model response: %w", err)
	}
	return p, nil
}

// ParseAttributes decodes a model reply into normalized RawAttributes.
func ParseAttributes(text string) (models.RawAttributes, error) {
	p, err := decodePayload(text)
	if err != nil {
		return models.RawAttributes{}, err
	}
	return p.toAttributes(), nil
}

func (p attributePayload) toAttributes() models.RawAttributes {
	attrs := models.RawAttributes{
		Brand:          string(p.Brand),
		ProductName:    string(p.ProductName),
		Certifications: normalizeCertifications(p.Certifications),
	}

	for _, f := range p.MaterialComposition {
		name := strings.ToLower(strings.TrimSpace(string(f.Material)))
		if name == "" {
			continue
		}
		attrs.Composition = append(attrs.Composition, models.FiberShare{
			Fiber:      name,
			Percentage: float64(f.Percentage),
		})
	}
	if len(attrs.Composition) == 0 && len(p.Materials) > 0 {
		attrs.Composition = ecoscore.ParseComposition(strings.Join(p.Materials, ", "))
	}

	for _, o := range []looseString{p.MadeIn, p.CountryOfOrigin, p.Origin} {
		if origin := normalizeOrigin(string(o)); origin != "" {
			attrs.Origin = origin
			break
		}
	}
	return attrs
}

func normalizeOrigin(s string) string {
	s = strings.TrimSpace(madeInPrefix.ReplaceAllString(s, ""))
	s = strings.Trim(s, " .,;")
	if strings.EqualFold(s, "unknown") || strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

func normalizeCertifications(certs []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, c := range certs {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
