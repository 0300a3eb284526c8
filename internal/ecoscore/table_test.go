package ecoscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavs06/HackNYU/internal/models"
)

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	require.NotNil(t, table)

	assert.Equal(t, "2025.1", table.Version)
	assert.Equal(t, 3.0, table.NeutralMaterial)
	assert.Equal(t, 3.0, table.NeutralOrigin)

	materials, origins, certs := table.Counts()
	assert.Greater(t, materials, 20)
	assert.Greater(t, origins, 40)
	assert.Greater(t, certs, 5)
}

func TestParseTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing version",
			doc:  "neutral: {material: 3, origin: 3}\n",
		},
		{
			name: "neutral out of range",
			doc:  "version: x\nneutral: {material: 0, origin: 3}\n",
		},
		{
			name: "material weight out of range",
			doc: `version: x
neutral: {material: 3, origin: 3}
materials:
  - key: bad
    keywords: [bad]
    weight: 7
`,
		},
		{
			name: "unknown certification tier",
			doc: `version: x
neutral: {material: 3, origin: 3}
certifications:
  - name: Thing
    keywords: [thing]
    tier: gold
`,
		},
		{
			name: "not yaml",
			doc:  "version: [unterminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestMaterialImpact(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		input     string
		wantKey   string
		wantKnown bool
	}{
		{"Organic Cotton", "organic_cotton", true},
		{"COTTON", "cotton", true},
		{"recycled polyester", "recycled_polyester", true},
		{"rPET", "recycled_polyester", true},
		{"Nylon", "polyamide", true},
		{"Tencel", "lyocell", true},
		{"bamboo lyocell", "lyocell", true},
		{"cotton polyester blend", "polyester", true},
		{"polyester elastane", "elastane", true},
		{"faux leather", "synthetic_leather", true},
		{"genuine leather", "leather", true},
		{"polyolefin", "synthetic_other", true},
		{"mystery fibre", UnknownFiber, false},
		{"", UnknownFiber, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f := table.MaterialImpact(tt.input)
			assert.Equal(t, tt.wantKey, f.Key)
			assert.Equal(t, tt.wantKnown, f.Known)
			assert.GreaterOrEqual(t, f.Weight, 1.0)
			assert.LessOrEqual(t, f.Weight, 5.0)
		})
	}
}

func TestMaterialImpact_UnknownUsesNeutralWeight(t *testing.T) {
	table := DefaultTable()
	assert.Equal(t, table.NeutralMaterial, table.MaterialImpact("qiviut").Weight)
}

func TestOriginImpact(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		input       string
		wantWeight  float64
		wantCountry string
		wantKnown   bool
	}{
		{"Made in Portugal", 1, "Portugal", true},
		{"MADE IN BANGLADESH", 5, "Bangladesh", true},
		{"Designed in Sweden, made in China", 4, "China", true},
		{"Made in U.S.A.", 2, "United States", true},
		{"Russia", 3, "", false},
		{"", 3, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w, country, known := table.OriginImpact(tt.input)
			assert.Equal(t, tt.wantWeight, w)
			assert.Equal(t, tt.wantCountry, country)
			assert.Equal(t, tt.wantKnown, known)
		})
	}
}

func TestCertification(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, 1.0, table.CertificationBonus("GOTS certified"))
	assert.Equal(t, 1.0, table.CertificationBonus("Fair Trade Certified"))
	assert.Equal(t, 0.5, table.CertificationBonus("OEKO-TEX Standard 100"))
	assert.Equal(t, 0.0, table.CertificationBonus("Eco Friendly Vibes"))

	name, _, ok := table.Certification("global organic textile standard")
	require.True(t, ok)
	assert.Equal(t, "GOTS", name)
}

func TestCertificationDiscount(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name  string
		certs []string
		want  float64
	}{
		{"none", nil, 0},
		{"single strong", []string{"GOTS"}, 1.0},
		{"duplicate spelling counted once", []string{"GOTS", "Global Organic Textile Standard"}, 1.0},
		{"strong and moderate", []string{"bluesign", "OEKO-TEX"}, 1.5},
		{"capped", []string{"GOTS", "Fair Trade", "bluesign"}, 2.0},
		{"unknown ignored", []string{"made with love"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.CertificationDiscount(tt.certs))
		})
	}
}

func TestParseComposition(t *testing.T) {
	tests := []struct {
		input string
		want  []models.FiberShare
	}{
		{
			input: "80% cotton, 20% polyester",
			want:  []models.FiberShare{{Fiber: "cotton", Percentage: 80}, {Fiber: "polyester", Percentage: 20}},
		},
		{
			input: "55% hemp 45% organic cotton",
			want:  []models.FiberShare{{Fiber: "hemp", Percentage: 55}, {Fiber: "organic cotton", Percentage: 45}},
		},
		{
			input: "Shell: 100% Cotton",
			want:  []models.FiberShare{{Fiber: "cotton", Percentage: 100}},
		},
		{
			input: "87.5% wool; 12.5% silk",
			want:  []models.FiberShare{{Fiber: "wool", Percentage: 87.5}, {Fiber: "silk", Percentage: 12.5}},
		},
		{
			input: "87,5% cotton, 12,5% polyamide",
			want:  []models.FiberShare{{Fiber: "cotton", Percentage: 87.5}, {Fiber: "polyamide", Percentage: 12.5}},
		},
		{
			input: "80%,20% polyester",
			want:  []models.FiberShare{{Fiber: "polyester", Percentage: 20}},
		},
		{
			input: "cotton/elastane",
			want:  []models.FiberShare{{Fiber: "cotton"}, {Fiber: "elastane"}},
		},
		{
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseComposition(tt.input))
		})
	}
}

func TestFiberKeys(t *testing.T) {
	table := DefaultTable()
	assert.Equal(t, []string{"organic_cotton", "polyester"}, table.FiberKeys("60% organic cotton, 30% polyester, 10% organic cotton"))
	assert.Empty(t, table.FiberKeys("mystery"))
}

func TestFormatComposition(t *testing.T) {
	got := FormatComposition([]models.FiberShare{{Fiber: "cotton", Percentage: 80}, {Fiber: "lining"}})
	assert.Equal(t, "80% cotton, lining", got)
}
