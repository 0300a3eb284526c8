package ecoscore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavs06/HackNYU/internal/models"
)

func flagOf(score models.EcoScore, ft models.FlagType) (models.ImpactFlag, bool) {
	for _, f := range score.Flags {
		if f.Type == ft {
			return f, true
		}
	}
	return models.ImpactFlag{}, false
}

func TestCompute_OrganicCottonPortugalGOTS(t *testing.T) {
	calc := NewCalculator(nil)

	score := calc.Compute(models.RawAttributes{
		Composition:    []models.FiberShare{{Fiber: "organic cotton", Percentage: 100}},
		Origin:         "Portugal",
		Certifications: []string{"GOTS"},
	})

	assert.Equal(t, 98, score.Score)
	assert.Equal(t, models.GradeA, score.Grade)

	_, hasMicro := flagOf(score, models.FlagMicroplastic)
	assert.False(t, hasMicro)
	_, hasLabor := flagOf(score, models.FlagLabor)
	assert.False(t, hasLabor, "best origin tier raises no labor flag")

	carbon, ok := flagOf(score, models.FlagCarbon)
	require.True(t, ok)
	assert.Equal(t, models.SeverityLow, carbon.Severity)
}

func TestCompute_PolyesterBangladesh(t *testing.T) {
	calc := NewCalculator(nil)

	score := calc.Compute(models.RawAttributes{
		Composition: []models.FiberShare{{Fiber: "polyester", Percentage: 100}},
		Origin:      "Bangladesh",
	})

	assert.Equal(t, 13, score.Score)
	assert.Equal(t, models.GradeF, score.Grade)

	want := []models.ImpactFlag{
		{Type: models.FlagMicroplastic, Severity: models.SeverityHigh, Label: "Heavy Microplastic Shedding"},
		{Type: models.FlagCarbon, Severity: models.SeverityHigh, Label: "High Carbon Footprint"},
		{Type: models.FlagWater, Severity: models.SeverityLow, Label: "Low Water Usage"},
		{Type: models.FlagLabor, Severity: models.SeverityHigh, Label: "High Labor Risk"},
	}
	assert.Equal(t, want, score.Flags)
}

func TestCompute_NeutralFallback(t *testing.T) {
	calc := NewCalculator(nil)

	score := calc.Compute(models.RawAttributes{})
	assert.Equal(t, 50, score.Score)
	assert.Equal(t, models.GradeC, score.Grade)
	assert.NotNil(t, score.Flags)
	assert.Empty(t, score.Flags)
}

func TestCompute_EqualWeightsWithoutPercentages(t *testing.T) {
	calc := NewCalculator(nil)

	a := calc.Assess(models.RawAttributes{
		Composition: []models.FiberShare{{Fiber: "linen"}, {Fiber: "hemp"}},
	})

	require.Len(t, a.Fibers, 2)
	assert.InDelta(t, 50, a.Fibers[0].Share, 1e-9)
	assert.InDelta(t, 50, a.Fibers[1].Share, 1e-9)
	assert.InDelta(t, 1.25, a.MaterialWeight, 1e-9)
	assert.Equal(t, 72, a.Score)
	assert.Equal(t, models.GradeB, a.Grade)
}

func TestCompute_PercentagesNormalized(t *testing.T) {
	calc := NewCalculator(nil)

	a := calc.Assess(models.RawAttributes{
		Composition: []models.FiberShare{{Fiber: "cotton", Percentage: 40}, {Fiber: "polyester", Percentage: 40}},
	})
	require.Len(t, a.Fibers, 2)
	assert.InDelta(t, 50, a.Fibers[0].Share, 1e-9)
	assert.InDelta(t, 3.5, a.MaterialWeight, 1e-9)
}

func TestCompute_ClampsOutOfRangePercentages(t *testing.T) {
	calc := NewCalculator(nil)

	clamped := calc.Compute(models.RawAttributes{
		Composition: []models.FiberShare{
			{Fiber: "cotton", Percentage: -10},
			{Fiber: "polyester", Percentage: 150},
			{Fiber: "wool", Percentage: math.NaN()},
		},
	})
	pure := calc.Compute(models.RawAttributes{
		Composition: []models.FiberShare{{Fiber: "polyester", Percentage: 100}},
	})
	assert.Equal(t, pure.Score, clamped.Score)
}

func TestCompute_DiscountFloorsAtZero(t *testing.T) {
	calc := NewCalculator(nil)

	a := calc.Assess(models.RawAttributes{
		Composition:    []models.FiberShare{{Fiber: "hemp", Percentage: 100}},
		Origin:         "Portugal",
		Certifications: []string{"GOTS", "Fair Trade", "bluesign"},
	})
	assert.Equal(t, 0.0, a.Impact)
	assert.Equal(t, 100, a.Score)
	assert.Equal(t, 2.0, a.Discount)
}

func TestCompute_UnknownCertificationHasNoEffect(t *testing.T) {
	calc := NewCalculator(nil)
	base := models.RawAttributes{
		Composition: []models.FiberShare{{Fiber: "cotton", Percentage: 100}},
		Origin:      "India",
	}
	withUnknown := base
	withUnknown.Certifications = []string{"100% Good Vibes"}

	assert.Equal(t, calc.Compute(base), calc.Compute(withUnknown))
}

func TestCompute_CertificationsNeverLowerScore(t *testing.T) {
	calc := NewCalculator(nil)
	inputs := []models.RawAttributes{
		{Composition: []models.FiberShare{{Fiber: "polyester", Percentage: 100}}, Origin: "China"},
		{Composition: []models.FiberShare{{Fiber: "linen", Percentage: 100}}, Origin: "Lithuania"},
		{},
	}
	for _, in := range inputs {
		before := calc.Compute(in).Score
		in.Certifications = []string{"OEKO-TEX"}
		assert.GreaterOrEqual(t, calc.Compute(in).Score, before)
	}
}

func TestCompute_MicroplasticThreshold(t *testing.T) {
	calc := NewCalculator(nil)

	tests := []struct {
		name     string
		fibers   []models.FiberShare
		wantFlag bool
		wantSev  models.Severity
	}{
		{
			name:     "exactly at threshold",
			fibers:   []models.FiberShare{{Fiber: "cotton", Percentage: 70}, {Fiber: "polyester", Percentage: 30}},
			wantFlag: true,
			wantSev:  models.SeverityLow,
		},
		{
			name:   "below threshold",
			fibers: []models.FiberShare{{Fiber: "cotton", Percentage: 75}, {Fiber: "polyester", Percentage: 25}},
		},
		{
			name:     "majority synthetic",
			fibers:   []models.FiberShare{{Fiber: "cotton", Percentage: 45}, {Fiber: "nylon", Percentage: 55}},
			wantFlag: true,
			wantSev:  models.SeverityMedium,
		},
		{
			name:     "recycled synthetics still shed",
			fibers:   []models.FiberShare{{Fiber: "recycled polyester", Percentage: 100}},
			wantFlag: true,
			wantSev:  models.SeverityHigh,
		},
		{
			name:   "natural only",
			fibers: []models.FiberShare{{Fiber: "linen", Percentage: 100}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := calc.Compute(models.RawAttributes{Composition: tt.fibers})
			flag, ok := flagOf(score, models.FlagMicroplastic)
			assert.Equal(t, tt.wantFlag, ok)
			if tt.wantFlag {
				assert.Equal(t, tt.wantSev, flag.Severity)
			}
		})
	}
}

func TestCompute_DecimalCommaComposition(t *testing.T) {
	calc := NewCalculator(nil)

	score := calc.Compute(models.RawAttributes{Composition: ParseComposition("87,5% cotton, 12,5% polyamide")})
	assert.Equal(t, 48, score.Score)
	_, hasMicro := flagOf(score, models.FlagMicroplastic)
	assert.False(t, hasMicro, "12.5% polyamide is below the microplastic threshold")
}

func TestCompute_UnknownOriginRaisesNoLaborFlag(t *testing.T) {
	calc := NewCalculator(nil)
	score := calc.Compute(models.RawAttributes{
		Composition: []models.FiberShare{{Fiber: "cotton", Percentage: 100}},
		Origin:      "Atlantis",
	})
	_, ok := flagOf(score, models.FlagLabor)
	assert.False(t, ok)
}

func TestCompute_Deterministic(t *testing.T) {
	calc := NewCalculator(nil)
	in := models.RawAttributes{
		Composition:    []models.FiberShare{{Fiber: "cotton", Percentage: 60}, {Fiber: "elastane", Percentage: 40}},
		Origin:         "Turkey",
		Certifications: []string{"OEKO-TEX"},
	}
	first := calc.Compute(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, calc.Compute(in))
	}
}

func TestCompute_ScoreAlwaysInRange(t *testing.T) {
	calc := NewCalculator(nil)
	fibers := []string{"hemp", "polyester", "leather", "mystery", "pvc", "organic cotton"}
	origins := []string{"", "Portugal", "Bangladesh", "Mars"}

	for _, fiber := range fibers {
		for _, origin := range origins {
			s := calc.Compute(models.RawAttributes{
				Composition: []models.FiberShare{{Fiber: fiber, Percentage: 100}},
				Origin:      origin,
			})
			assert.GreaterOrEqual(t, s.Score, 0)
			assert.LessOrEqual(t, s.Score, 100)
			assert.Equal(t, GradeFor(s.Score), s.Grade)
		}
	}
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		score int
		want  models.Grade
	}{
		{100, models.GradeA},
		{80, models.GradeA},
		{79, models.GradeB},
		{60, models.GradeB},
		{59, models.GradeC},
		{40, models.GradeC},
		{39, models.GradeD},
		{20, models.GradeD},
		{19, models.GradeF},
		{0, models.GradeF},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFor(tt.score), "score %d", tt.score)
	}
}

func TestTips(t *testing.T) {
	calc := NewCalculator(nil)

	good := calc.Assess(models.RawAttributes{
		Composition: []models.FiberShare{{Fiber: "hemp", Percentage: 100}},
		Origin:      "Portugal",
	})
	assert.Len(t, Tips(good), 3)

	poor := calc.Assess(models.RawAttributes{
		Composition: []models.FiberShare{{Fiber: "polyester", Percentage: 100}},
		Origin:      "Bangladesh",
	})
	tips := Tips(poor)
	assert.Contains(t, tips, "Use a microfiber-catching wash bag for synthetic fabrics")
}
