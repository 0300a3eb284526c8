// Package ecoscore turns extracted garment attributes into a 0-100
// sustainability score, a letter grade and impact flags.
package ecoscore

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed impact.yaml
var defaultTableYAML []byte

// UnknownFiber is the key reported for fiber names that match no entry
const UnknownFiber = "unknown"

// Fiber is the resolved impact entry for one fiber name
type Fiber struct {
	Key       string
	Weight    float64
	Carbon    int
	Water     int
	Synthetic bool
	Preferred bool
	Known     bool
}

type materialEntry struct {
	Key       string   `yaml:"key"`
	Keywords  []string `yaml:"keywords"`
	Weight    float64  `yaml:"weight"`
	Carbon    int      `yaml:"carbon"`
	Water     int      `yaml:"water"`
	Synthetic bool     `yaml:"synthetic"`
	Preferred bool     `yaml:"preferred"`
}

type originEntry struct {
	Country  string   `yaml:"country"`
	Keywords []string `yaml:"keywords"`
	Weight   float64  `yaml:"weight"`
}

type certificationEntry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Tier     string   `yaml:"tier"`
}

type tableFile struct {
	Version string `yaml:"version"`
	Neutral struct {
		Material float64 `yaml:"material"`
		Origin   float64 `yaml:"origin"`
	} `yaml:"neutral"`
	Discounts struct {
		Strong   float64 `yaml:"strong"`
		Moderate float64 `yaml:"moderate"`
		Max      float64 `yaml:"max"`
	} `yaml:"discounts"`
	Materials      []materialEntry      `yaml:"materials"`
	Origins        []originEntry        `yaml:"origins"`
	Certifications []certificationEntry `yaml:"certifications"`
}

type keyword[T any] struct {
	phrase string
	entry  *T
}

// Table is an immutable, versioned lookup of material, origin and
// certification impacts. It is safe for concurrent use.
type Table struct {
	Version          string
	NeutralMaterial  float64
	NeutralOrigin    float64
	StrongDiscount   float64
	ModerateDiscount float64
	MaxDiscount      float64

	materials      []keyword[materialEntry]
	origins        []keyword[originEntry]
	certifications []keyword[certificationEntry]
	syntheticOther *materialEntry
	materialCount  int
	originCount    int
	certCount      int
}

var defaultTable = sync.OnceValues(func() (*Table, error) {
	return ParseTable(defaultTableYAML)
})

// DefaultTable returns the embedded impact table.
func DefaultTable() *Table {
	t, err := defaultTable()
	if err != nil {
		panic(fmt.Sprintf("embedded impact table is invalid: %v", err))
	}
	return t
}

// LoadTableFile reads an impact table from a YAML file
func LoadTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read impact table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates an impact table document
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse impact table: %w", err)
	}
	if f.Version == "" {
		return nil, fmt.Errorf("impact table has no version")
	}
	if !inRange(f.Neutral.Material) || !inRange(f.Neutral.Origin) {
		return nil, fmt.Errorf("neutral weights must be within 1..5")
	}

	t := &Table{
		Version:          f.Version,
		NeutralMaterial:  f.Neutral.Material,
		NeutralOrigin:    f.Neutral.Origin,
		StrongDiscount:   f.Discounts.Strong,
		ModerateDiscount: f.Discounts.Moderate,
		MaxDiscount:      f.Discounts.Max,
		materialCount:    len(f.Materials),
		originCount:      len(f.Origins),
		certCount:        len(f.Certifications),
	}

	for i := range f.Materials {
		m := &f.Materials[i]
		if !inRange(m.Weight) {
			return nil, fmt.Errorf("material %q: weight %.1f outside 1..5", m.Key, m.Weight)
		}
		if m.Key == "synthetic_other" {
			t.syntheticOther = m
		}
		for _, kw := range m.Keywords {
			t.materials = append(t.materials, keyword[materialEntry]{phrase: normalizeText(kw), entry: m})
		}
	}
	for i := range f.Origins {
		o := &f.Origins[i]
		if !inRange(o.Weight) {
			return nil, fmt.Errorf("origin %q: weight %.1f outside 1..5", o.Country, o.Weight)
		}
		for _, kw := range o.Keywords {
			t.origins = append(t.origins, keyword[originEntry]{phrase: normalizeText(kw), entry: o})
		}
	}
	for i := range f.Certifications {
		c := &f.Certifications[i]
		if c.Tier != "strong" && c.Tier != "moderate" {
			return nil, fmt.Errorf("certification %q: unknown tier %q", c.Name, c.Tier)
		}
		for _, kw := range c.Keywords {
			t.certifications = append(t.certifications, keyword[certificationEntry]{phrase: normalizeText(kw), entry: c})
		}
	}

	longestFirst(t.materials)
	longestFirst(t.origins)
	longestFirst(t.certifications)
	return t, nil
}

// Counts reports how many materials, origins and certifications the table holds
func (t *Table) Counts() (materials, origins, certifications int) {
	return t.materialCount, t.originCount, t.certCount
}

// MaterialImpact resolves a free-form fiber name.
//
// Keywords are matched case-insensitively on word boundaries, longest first,
// and a matched phrase is consumed so "organic cotton" never also counts as
// "cotton". When several entries still match, the best weight among entries
// carrying an explicit sustainability signal wins; failing that the worst
// synthetic weight wins; failing that the best weight overall.
func (t *Table) MaterialImpact(name string) Fiber {
	text := padded(normalizeText(name))
	var matches []*materialEntry
	for _, kw := range t.materials {
		needle := " " + kw.phrase + " "
		if strings.Contains(text, needle) {
			matches = append(matches, kw.entry)
			text = strings.ReplaceAll(text, needle, " ")
		}
	}

	if len(matches) == 0 {
		if t.syntheticOther != nil && hasPolyWord(text) {
			return fiberFrom(t.syntheticOther)
		}
		return Fiber{Key: UnknownFiber, Weight: t.NeutralMaterial}
	}

	pick := func(keep func(*materialEntry) bool, better func(a, b float64) bool) *materialEntry {
		var best *materialEntry
		for _, m := range matches {
			if !keep(m) {
				continue
			}
			if best == nil || better(m.Weight, best.Weight) {
				best = m
			}
		}
		return best
	}
	lower := func(a, b float64) bool { return a < b }
	higher := func(a, b float64) bool { return a > b }

	if m := pick(func(m *materialEntry) bool { return m.Preferred }, lower); m != nil {
		return fiberFrom(m)
	}
	if m := pick(func(m *materialEntry) bool { return m.Synthetic }, higher); m != nil {
		return fiberFrom(m)
	}
	return fiberFrom(pick(func(*materialEntry) bool { return true }, lower))
}

// OriginImpact resolves a country of origin. When the text names several
// countries the highest weight wins. Unknown or empty origins return the
// neutral weight with known=false.
func (t *Table) OriginImpact(origin string) (weight float64, country string, known bool) {
	text := padded(normalizeText(origin))
	var best *originEntry
	for _, kw := range t.origins {
		if strings.Contains(text, " "+kw.phrase+" ") {
			if best == nil || kw.entry.Weight > best.Weight {
				best = kw.entry
			}
		}
	}
	if best == nil {
		return t.NeutralOrigin, "", false
	}
	return best.Weight, best.Country, true
}

// Certification resolves a certification string to its canonical name and
// discount. Unrecognized certifications return ok=false.
func (t *Table) Certification(cert string) (name string, discount float64, ok bool) {
	text := padded(normalizeText(cert))
	var best *certificationEntry
	for _, kw := range t.certifications {
		if !strings.Contains(text, " "+kw.phrase+" ") {
			continue
		}
		if best == nil || t.tierDiscount(kw.entry.Tier) > t.tierDiscount(best.Tier) {
			best = kw.entry
		}
	}
	if best == nil {
		return "", 0, false
	}
	return best.Name, t.tierDiscount(best.Tier), true
}

// CertificationBonus returns the impact discount for a single certification
func (t *Table) CertificationBonus(cert string) float64 {
	_, d, _ := t.Certification(cert)
	return d
}

// CertificationDiscount sums the discounts of distinct recognized
// certifications, capped at MaxDiscount.
func (t *Table) CertificationDiscount(certs []string) float64 {
	seen := make(map[string]bool)
	total := 0.0
	for _, c := range certs {
		name, d, ok := t.Certification(c)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		total += d
	}
	if t.MaxDiscount > 0 && total > t.MaxDiscount {
		total = t.MaxDiscount
	}
	return total
}

// FiberKeys returns the distinct fiber keys of a free-form composition
func (t *Table) FiberKeys(material string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, share := range ParseComposition(material) {
		f := t.MaterialImpact(share.Fiber)
		if !f.Known || seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		keys = append(keys, f.Key)
	}
	return keys
}

func (t *Table) tierDiscount(tier string) float64 {
	if tier == "strong" {
		return t.StrongDiscount
	}
	return t.ModerateDiscount
}

func fiberFrom(m *materialEntry) Fiber {
	return Fiber{
		Key:       m.Key,
		Weight:    m.Weight,
		Carbon:    m.Carbon,
		Water:     m.Water,
		Synthetic: m.Synthetic,
		Preferred: m.Preferred,
		Known:     true,
	}
}

func longestFirst[T any](kws []keyword[T]) {
	sort.SliceStable(kws, func(i, j int) bool {
		return len(kws[i].phrase) > len(kws[j].phrase)
	})
}

func inRange(w float64) bool {
	return w >= 1 && w <= 5
}

// normalizeText lowercases s and reduces every run of non-alphanumeric
// characters to a single space.
func normalizeText(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

func padded(s string) string {
	return " " + s + " "
}

func hasPolyWord(text string) bool {
	for _, w := range strings.Fields(text) {
		if strings.HasPrefix(w, "poly") {
			return true
		}
	}
	return false
}
