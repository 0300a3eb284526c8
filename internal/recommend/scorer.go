// Package recommend scores, filters and ranks alternative products.
package recommend

import (
	"github.com/arnavs06/HackNYU/internal/ecoscore"
	"github.com/arnavs06/HackNYU/internal/models"
)

// Extracted pairs a candidate with the attributes extracted for it. A nil
// Attributes means extraction failed.
type Extracted struct {
	Candidate  models.Candidate
	Attributes *models.RawAttributes
}

// ScoreAll scores every candidate, preserving input order. Candidates whose
// extraction failed receive the neutral score instead of being dropped.
func ScoreAll(calc *ecoscore.Calculator, in []Extracted) []models.Candidate {
	out := make([]models.Candidate, 0, len(in))
	for _, e := range in {
		var attrs models.RawAttributes
		if e.Attributes != nil {
			attrs = *e.Attributes
		}
		a := calc.Assess(attrs)

		c := e.Candidate
		c.EcoScore = a.Score
		c.Grade = a.Grade
		c.Fibers = fiberKeys(a.Fibers)
		if c.Material == "" && len(attrs.Composition) > 0 {
			c.Material = ecoscore.FormatComposition(attrs.Composition)
		}
		if c.Origin == "" && a.OriginKnown {
			c.Origin = a.Country
		}
		out = append(out, c)
	}
	return out
}

func fiberKeys(fibers []ecoscore.WeightedFiber) []string {
	var keys []string
	for _, f := range fibers {
		if f.Known {
			keys = append(keys, f.Key)
		}
	}
	return keys
}
