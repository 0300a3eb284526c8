package ecoscore

import (
	"math"

	"github.com/arnavs06/HackNYU/internal/models"
)

const (
	// subRangeScale maps a 1..5 weight onto a 0..5 sub-range.
	subRangeScale = 1.25
	// scoreScale converts the 0..10 combined impact into score points.
	scoreScale = 10.0

	// MicroplasticThreshold is the share of a single synthetic fiber, in
	// percent, from which a microplastic flag is raised.
	MicroplasticThreshold = 30.0
)

// WeightedFiber is a resolved fiber with its normalized share in percent
type WeightedFiber struct {
	Fiber
	Name  string
	Share float64
}

// Assessment is a score together with the inputs that produced it
type Assessment struct {
	models.EcoScore
	MaterialWeight float64
	OriginWeight   float64
	Country        string
	OriginKnown    bool
	Discount       float64
	Impact         float64
	Fibers         []WeightedFiber
	TableVersion   string
}

// Calculator scores RawAttributes against an impact table
type Calculator struct {
	table *Table
}

// NewCalculator returns a calculator backed by t, or by the embedded table
// when t is nil.
func NewCalculator(t *Table) *Calculator {
	if t == nil {
		t = DefaultTable()
	}
	return &Calculator{table: t}
}

// Table returns the impact table the calculator scores with
func (c *Calculator) Table() *Table {
	return c.table
}

// Compute scores attrs. It never fails: missing data falls back to the
// table's neutral weights.
func (c *Calculator) Compute(attrs models.RawAttributes) models.EcoScore {
	return c.Assess(attrs).EcoScore
}

// Assess scores attrs and keeps the intermediate weights.
func (c *Calculator) Assess(attrs models.RawAttributes) Assessment {
	fibers := c.weigh(attrs.Composition)

	material := c.table.NeutralMaterial
	if len(fibers) > 0 {
		material = 0
		for _, f := range fibers {
			material += f.Weight * f.Share
		}
		material /= 100
	}

	origin, country, known := c.table.OriginImpact(attrs.Origin)
	discount := c.table.CertificationDiscount(attrs.Certifications)

	impact := rescale(material) + rescale(origin) - discount
	if impact < 0 {
		impact = 0
	}
	score := int(math.Round(100 - impact*scoreScale))
	score = min(max(score, 0), 100)

	return Assessment{
		EcoScore: models.EcoScore{
			Score: score,
			Grade: GradeFor(score),
			Flags: flags(fibers, origin, known),
		},
		MaterialWeight: material,
		OriginWeight:   origin,
		Country:        country,
		OriginKnown:    known,
		Discount:       discount,
		Impact:         impact,
		Fibers:         fibers,
		TableVersion:   c.table.Version,
	}
}

// weigh resolves each fiber and normalizes shares so they sum to 100.
// Repeated fibers are merged. With no stated percentage every fiber gets an
// equal share.
func (c *Calculator) weigh(composition []models.FiberShare) []WeightedFiber {
	var fibers []WeightedFiber
	index := make(map[string]int)
	total := 0.0
	for _, share := range composition {
		pct := clampPercent(share.Percentage)
		f := c.table.MaterialImpact(share.Fiber)
		key := f.Key
		if !f.Known {
			key = UnknownFiber + ":" + share.Fiber
		}
		if i, ok := index[key]; ok {
			fibers[i].Share += pct
		} else {
			index[key] = len(fibers)
			fibers = append(fibers, WeightedFiber{Fiber: f, Name: share.Fiber, Share: pct})
		}
		total += pct
	}
	if len(fibers) == 0 {
		return nil
	}

	for i := range fibers {
		if total == 0 {
			fibers[i].Share = 100 / float64(len(fibers))
		} else {
			fibers[i].Share = fibers[i].Share / total * 100
		}
	}
	return fibers
}

func clampPercent(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func rescale(weight float64) float64 {
	return (weight - 1) * subRangeScale
}

// GradeFor maps a 0-100 score to its letter grade. Thresholds include their
// lower bound.
func GradeFor(score int) models.Grade {
	switch {
	case score >= 80:
		return models.GradeA
	case score >= 60:
		return models.GradeB
	case score >= 40:
		return models.GradeC
	case score >= 20:
		return models.GradeD
	default:
		return models.GradeF
	}
}
