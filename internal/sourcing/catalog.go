package sourcing

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/ecoscore"
	"github.com/arnavs06/HackNYU/internal/models"
)

//go:embed catalog/*.yaml
var defaultCatalogFS embed.FS

// CatalogItem is one curated product
type CatalogItem struct {
	ID             string   `yaml:"id" json:"id"`
	Title          string   `yaml:"title" json:"title"`
	Brand          string   `yaml:"brand" json:"brand"`
	Materials      string   `yaml:"materials" json:"materials"`
	Origin         string   `yaml:"origin" json:"origin"`
	Certifications []string `yaml:"certifications" json:"certifications"`
	Price          float64  `yaml:"price" json:"price"`
	Currency       string   `yaml:"currency" json:"currency"`
	Category       string   `yaml:"category" json:"category"`
	Description    string   `yaml:"description" json:"description"`
	URL            string   `yaml:"url" json:"url"`
}

// Candidate returns the unscored candidate for the item
func (it CatalogItem) Candidate() models.Candidate {
	c := models.Candidate{
		ID:          it.ID,
		Title:       it.Title,
		Brand:       it.Brand,
		Material:    it.Materials,
		URL:         it.URL,
		Currency:    it.Currency,
		Description: it.Description,
		Category:    it.Category,
		Origin:      it.Origin,
	}
	if it.Price > 0 {
		c.Price = strconv.FormatFloat(it.Price, 'f', 2, 64)
	}
	return c
}

// Attributes returns the item's declared attributes
func (it CatalogItem) Attributes() models.RawAttributes {
	return models.RawAttributes{
		Composition:    ecoscore.ParseComposition(it.Materials),
		Origin:         it.Origin,
		Certifications: it.Certifications,
		Brand:          it.Brand,
		ProductName:    it.Title,
		ItemType:       it.Category,
	}
}

type catalogFile struct {
	Items []CatalogItem `yaml:"items"`
}

// Catalog is a set of curated products loaded from YAML files
type Catalog struct {
	items []CatalogItem
}

// DefaultCatalog returns the embedded curated picks
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalogFS, "catalog/*.yaml")
}

// OpenCatalog loads the catalog configured by cfg, or the embedded one when
// no directory is set.
func OpenCatalog(cfg config.CatalogConfig) (*Catalog, error) {
	if cfg.Dir == "" {
		return DefaultCatalog()
	}
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = "**/*.yaml"
	}
	return LoadCatalog(os.DirFS(cfg.Dir), pattern)
}

// LoadCatalog reads every file in fsys matching pattern. Items with a
// duplicate id keep their first definition; files are read in lexical order.
func LoadCatalog(fsys fs.FS, pattern string) (*Catalog, error) {
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no catalog files match %q", pattern)
	}

	slices.Sort(matches)

	c := &Catalog{}
	seen := make(map[string]bool)
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file %s: %w", name, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse catalog file %s: %w", name, err)
		}
		for i, it := range f.Items {
			if it.ID == "" || it.Title == "" {
				return nil, fmt.Errorf("catalog file %s: item %d needs an id and a title", name, i)
			}
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			c.items = append(c.items, it)
		}
	}
	return c, nil
}

// Items returns a copy of the catalog items in load order
func (c *Catalog) Items() []CatalogItem {
	return append([]CatalogItem(nil), c.items...)
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.items)
}
