package birdinfo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestProvider(languages ...string) *WikipediaProvider {
	if len(languages) == 0 {
		languages = []string{"es", "en"}
	}
	return &WikipediaProvider{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		languages:  languages,
		userAgent:  buildUserAgent("test", "https://example.test/contact"),
		baseURL: func(lang string) string {
			return fmt.Sprintf("https://%s.wikipedia.org", lang)
		},
	}
}

func activateMock(t *testing.T, p *WikipediaProvider) {
	t.Helper()
	httpmock.ActivateNonDefault(p.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
}

func registerSearch(lang, query string, titles ...string) {
	hits := ""
	for i, title := range titles {
		if i > 0 {
			hits += ","
		}
		hits += fmt.Sprintf(`{"title":%q,"snippet":"<span>%s</span>"}`, title, title)
	}
	body := fmt.Sprintf(`{"query":{"search":[%s]}}`, hits)
	httpmock.RegisterResponderWithQuery(
		http.MethodGet,
		fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang),
		map[string]string{
			"action":   "query",
			"format":   "json",
			"list":     "search",
			"srlimit":  "3",
			"srsearch": query,
			"utf8":     "1",
		},
		httpmock.NewStringResponder(200, body),
	)
}

func registerSummary(lang, title, body string) {
	httpmock.RegisterResponder(
		http.MethodGet,
		fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1/page/summary/%s", lang, url.PathEscape(title)),
		httpmock.NewStringResponder(200, body),
	)
}

func emptySearchEverywhere(lang string) {
	httpmock.RegisterResponder(
		http.MethodGet,
		fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang),
		httpmock.NewStringResponder(200, `{"query":{"search":[]}}`),
	)
}

func TestLookupAcceptsBirdPage(t *testing.T) {
	p := newTestProvider("es")
	activateMock(t, p)

	registerSearch("es", "Vencejo común", "Vencejo común")
	registerSearch("es", "Vencejo común ave", "Vencejo común")
	registerSearch("es", "Vencejo común pájaro", "Vencejo común")
	registerSummary("es", "Vencejo común", `{
		"type": "standard",
		"title": "Vencejo común",
		"description": "especie de ave apodiforme",
		"extract": "El vencejo común es un ave migratoria.",
		"thumbnail": {"source": "https://upload.wikimedia.org/swift.jpg"},
		"content_urls": {"desktop": {"page": "https://es.wikipedia.org/wiki/Vencejo_com%C3%BAn"}}
	}`)

	info, err := p.Lookup(context.Background(), "Vencejo común")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "Vencejo común", info.Title)
	assert.Equal(t, "https://upload.wikimedia.org/swift.jpg", info.PhotoURL)
	assert.Equal(t, "wikipedia:es", info.Source)
	assert.Equal(t, "https://es.wikipedia.org/wiki/Vencejo_com%C3%BAn", info.PageURL)
}

func TestLookupRejectsDisambiguationAndNonBird(t *testing.T) {
	p := newTestProvider("en")
	activateMock(t, p)

	registerSearch("en", "Swift", "Swift (disambiguation)", "Swift (programming language)", "Common swift")
	registerSearch("en", "Swift bird", "Common swift")
	registerSearch("en", "Swift species", "Common swift")
	registerSummary("en", "Swift (disambiguation)", `{"type":"disambiguation","title":"Swift (disambiguation)"}`)
	registerSummary("en", "Swift (programming language)", `{
		"type": "standard",
		"title": "Swift (programming language)",
		"description": "general-purpose programming language",
		"extract": "Swift is a compiled language developed by Apple."
	}`)
	registerSummary("en", "Common swift", `{
		"type": "standard",
		"title": "Common swift",
		"description": "species of bird",
		"extract": "The common swift is a medium-sized bird.",
		"thumbnail": {"source": "https://upload.wikimedia.org/common-swift.jpg"}
	}`)

	info, err := p.Lookup(context.Background(), "Swift")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "Common swift", info.Title)

	// Deduplication: every distinct title fetched once despite repeats
	// across query variants.
	calls := httpmock.GetCallCountInfo()
	summaryKey := "GET https://en.wikipedia.org/api/rest_v1/page/summary/" + url.PathEscape("Common swift")
	assert.Equal(t, 1, calls[summaryKey])
}

func TestLookupIgnoresSnippetOnlyKeywords(t *testing.T) {
	p := newTestProvider("en")
	activateMock(t, p)

	// The free-text search quotes arbitrary article text, so its snippet
	// mentions birds even though the page itself is about a name. Only the
	// summary fields count for acceptance.
	snippetBody := `{"query":{"search":[{"title":"Martin","snippet":"<span>Martin</span> may refer to the <span>bird</span> family"}]}}`
	httpmock.RegisterResponder(http.MethodGet, "https://en.wikipedia.org/w/api.php",
		httpmock.NewStringResponder(200, snippetBody))
	registerSummary("en", "Martin", `{
		"type": "standard",
		"title": "Martin",
		"description": "given name and surname",
		"extract": "Martin is a common given name and surname in many countries."
	}`)

	info, err := p.Lookup(context.Background(), "Martin")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLookupPrefersCandidateWithPhoto(t *testing.T) {
	p := newTestProvider("en")
	activateMock(t, p)

	registerSearch("en", "Little owl", "Little owl (heraldry)", "Little owl")
	registerSearch("en", "Little owl bird", "Little owl")
	registerSearch("en", "Little owl species", "Little owl")
	registerSummary("en", "Little owl (heraldry)", `{
		"type": "standard",
		"title": "Little owl (heraldry)",
		"description": "bird emblem in heraldry",
		"extract": "A bird used as a charge."
	}`)
	registerSummary("en", "Little owl", `{
		"type": "standard",
		"title": "Little owl",
		"description": "species of bird",
		"extract": "The little owl is a small owl.",
		"thumbnail": {"source": "https://upload.wikimedia.org/little-owl.jpg"}
	}`)

	info, err := p.Lookup(context.Background(), "Little owl")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "Little owl", info.Title, "photo-bearing candidate wins over an earlier one without")
	assert.NotEmpty(t, info.PhotoURL)
}

func TestLookupFallsThroughLanguages(t *testing.T) {
	p := newTestProvider("es", "en")
	activateMock(t, p)

	emptySearchEverywhere("es")
	registerSearch("en", "Northern bald ibis", "Northern bald ibis")
	registerSearch("en", "Northern bald ibis bird", "Northern bald ibis")
	registerSearch("en", "Northern bald ibis species", "Northern bald ibis")
	registerSummary("en", "Northern bald ibis", `{
		"type": "standard",
		"title": "Northern bald ibis",
		"description": "species of bird",
		"extract": "The northern bald ibis is a migratory wader-like bird."
	}`)

	info, err := p.Lookup(context.Background(), "Northern bald ibis")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "wikipedia:en", info.Source)
}

func TestLookupMissResolvesToNil(t *testing.T) {
	p := newTestProvider("es", "en")
	activateMock(t, p)
	emptySearchEverywhere("es")
	emptySearchEverywhere("en")

	info, err := p.Lookup(context.Background(), "Nonexistent creature")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLookupSurvivesSearchFailure(t *testing.T) {
	p := newTestProvider("es", "en")
	activateMock(t, p)

	httpmock.RegisterResponder(http.MethodGet, "https://es.wikipedia.org/w/api.php",
		httpmock.NewStringResponder(503, "upstream error"))
	registerSearch("en", "White stork", "White stork")
	registerSearch("en", "White stork bird", "White stork")
	registerSearch("en", "White stork species", "White stork")
	registerSummary("en", "White stork", `{
		"type": "standard",
		"title": "White stork",
		"description": "species of bird",
		"extract": "The white stork is a large bird."
	}`)

	info, err := p.Lookup(context.Background(), "White stork")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "White stork", info.Title)
}

func TestLookupEmptySpecies(t *testing.T) {
	p := newTestProvider("es")
	info, err := p.Lookup(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestContainsKeyword(t *testing.T) {
	assert.True(t, containsKeyword("especie de ave del sur", "ave"))
	assert.True(t, containsKeyword("Especie de ave apodiforme", "especie de ave"))
	assert.False(t, containsKeyword("sistema de navegación aérea", "ave"))
	assert.False(t, containsKeyword("", "bird"))
	assert.True(t, containsKeyword("A small BIRD of prey", "bird"))
}
