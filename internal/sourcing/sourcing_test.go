package sourcing

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/models"
)

const searchResponse = `{"data": {"result_groups": [
  {"rank_score": 0.9, "similar_products": [
    {"name": "Linen Shirt", "brand_name": "Acme", "price": "49.90", "currency": "EUR", "url": "https://shop.example/a", "score": 0.71, "category": "tops", "vendor": "Shop"},
    {"name": "", "brand_name": "Other", "price": 20, "url": "https://shop.example/b", "score": 0.93, "images": ["https://img.example/b.jpg"]}
  ]},
  {"similar_products": [
    {"name": "Cotton Tee", "brand_name": "Basic", "url": "https://shop.example/c", "score": 0.80, "matching_image": "https://img.example/c.jpg"}
  ]}
]}}`

func newLykdatServer(t *testing.T, handler http.HandlerFunc) *Lykdat {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLykdat(config.LykdatConfig{
		APIKey:     "secret",
		BaseURL:    srv.URL + "/",
		MaxResults: 20,
		Timeout:    5 * time.Second,
	}, nil)
}

func TestLykdatSearch(t *testing.T) {
	client := newLykdatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/global/search", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "secret", r.FormValue("api_key"))
		if file, _, err := r.FormFile("image"); assert.NoError(t, err) {
			data, _ := io.ReadAll(file)
			assert.Equal(t, "jpeg-bytes", string(data))
		}
		io.WriteString(w, searchResponse)
	})

	candidates, err := client.Search(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "Similar Item 1", candidates[0].Title)
	assert.Equal(t, "20", candidates[0].Price)
	assert.Equal(t, "https://img.example/b.jpg", candidates[0].ImageURL)
	assert.Equal(t, "Cotton Tee", candidates[1].Title)
	assert.Equal(t, "https://img.example/c.jpg", candidates[1].ImageURL)
	assert.Equal(t, models.Candidate{
		ID:          "similar_3",
		Title:       "Linen Shirt",
		Brand:       "Acme",
		URL:         "https://shop.example/a",
		Price:       "49.90",
		Currency:    "EUR",
		Description: "category: tops; vendor: Shop",
		Category:    "tops",
		Similarity:  0.71,
	}, candidates[2])
}

func TestLykdatSearch_Limit(t *testing.T) {
	client := newLykdatServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, searchResponse)
	})
	client.maxResults = 1

	candidates, err := client.Search(context.Background(), []byte("x"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "https://shop.example/b", candidates[0].URL)
}

func TestLykdatSearch_Error(t *testing.T) {
	client := newLykdatServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	})

	_, err := client.Search(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestLykdatDeepTag(t *testing.T) {
	client := newLykdatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/detection/tags", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		io.WriteString(w, `{"data": {
			"items": [{"name": "t-shirt", "category": "tops", "confidence": 0.9}, {"name": "jeans", "category": "bottoms", "confidence": 0.6}],
			"colors": [{"name": "white", "confidence": 0.8}],
			"labels": [{"name": "casual", "confidence": 0.7}]}}`)
	})

	tags, err := client.DeepTag(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, tags.Confidence(), 1e-9)
	main, ok := tags.MainItem()
	require.True(t, ok)
	assert.Equal(t, "t-shirt", main.Name)
	assert.Equal(t, models.RawAttributes{ProductName: "t-shirt", ItemType: "tops"}, tags.Attributes())
	assert.Len(t, tags.Colors, 1)
	assert.Len(t, tags.Labels, 1)
}

func TestTagResult_Empty(t *testing.T) {
	var tags TagResult
	assert.Equal(t, DefaultConfidence, tags.Confidence())
	_, ok := tags.MainItem()
	assert.False(t, ok)
	assert.True(t, tags.Attributes().IsEmpty())
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	require.Equal(t, 6, c.Len())

	items := c.Items()
	assert.Equal(t, "pick_organic_tee", items[0].ID)

	cand := items[0].Candidate()
	assert.Equal(t, "Organic Cotton Daily Tee", cand.Title)
	assert.Equal(t, "100% organic cotton", cand.Material)
	assert.Equal(t, "32.00", cand.Price)

	attrs := items[1].Attributes()
	assert.Equal(t, []models.FiberShare{{Fiber: "hemp", Percentage: 55}, {Fiber: "organic cotton", Percentage: 45}}, attrs.Composition)
	assert.Equal(t, []string{"Fair Trade Certified"}, attrs.Certifications)
}

func TestLoadCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		"b/more.yaml": {Data: []byte("items:\n  - id: one\n    title: Duplicate\n  - id: three\n    title: Three\n")},
		"a.yaml":      {Data: []byte("items:\n  - id: one\n    title: One\n    materials: 100% wool\n  - id: two\n    title: Two\n")},
		"notes.txt":   {Data: []byte("ignored")},
	}

	c, err := LoadCatalog(fsys, "**/*.yaml")
	require.NoError(t, err)
	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "One", items[0].Title)
	assert.Equal(t, "two", items[1].ID)
	assert.Equal(t, "three", items[2].ID)

	items[0].Title = "changed"
	assert.Equal(t, "One", c.Items()[0].Title)
}

func TestLoadCatalog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		pattern string
	}{
		{name: "no match", fsys: fstest.MapFS{"a.txt": {Data: []byte("x")}}, pattern: "*.yaml"},
		{name: "bad pattern", fsys: fstest.MapFS{}, pattern: "[a-"},
		{name: "bad yaml", fsys: fstest.MapFS{"a.yaml": {Data: []byte("items: [")}}, pattern: "*.yaml"},
		{name: "missing id", fsys: fstest.MapFS{"a.yaml": {Data: []byte("items:\n  - title: X\n")}}, pattern: "*.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(tt.fsys, tt.pattern)
			assert.Error(t, err)
		})
	}
}

func TestOpenCatalog_Dir(t *testing.T) {
	c, err := OpenCatalog(config.CatalogConfig{})
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())

	_, err = OpenCatalog(config.CatalogConfig{Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestPageFetcher(t *testing.T) {
	body := strings.Repeat("Lorem ipsum dolor sit amet. ", 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		switch r.URL.Path {
		case "/product":
			io.WriteString(w, `<html><head><title> Linen Shirt </title>
				<meta name="description" content="Made in Portugal"></head>
				<body><script>var x = 1;</script><h1>Linen Shirt</h1>
				<p>Composition: 100% linen</p>
				<p>`+body+`</p></body></html>`)
		case "/blocked":
			io.WriteString(w, `<html><head><title>Robot Check</title></head><body>`+body+`</body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewPageFetcher(config.FetchConfig{Timeout: 5 * time.Second, MaxChars: 100}, nil)

	page, err := f.Fetch(context.Background(), srv.URL+"/product")
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt", page.Title)
	assert.True(t, strings.HasPrefix(page.Text, "Made in Portugal\nLinen Shirt\nComposition: 100% linen"))
	assert.NotContains(t, page.Text, "var x")
	assert.Len(t, []rune(page.Text), 100)

	_, err = f.Fetch(context.Background(), srv.URL+"/blocked")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}
