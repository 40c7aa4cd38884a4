package birdinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/antonholmquist/jason"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wingman2025/birdtarifa/internal/conf"
	"github.com/wingman2025/birdtarifa/internal/errors"
)

const (
	userAgentName    = "BirdTarifa"
	userAgentLibrary = "Go-HTTP-Client"

	searchResultsPerQuery = 3

	defaultHTTPTimeout = 10 * time.Second
)

// langProfile drives the per-language search heuristics: query variants bias
// the free-text search toward biological results, keyword hints separate
// birds from films, bands and football clubs sharing the name.
type langProfile struct {
	variants []string
	keywords []string
}

var langProfiles = map[string]langProfile{
	"es": {
		variants: []string{"%s", "%s ave", "%s pájaro"},
		keywords: []string{"ave", "aves", "pájaro", "pajaro", "especie de ave"},
	},
	"en": {
		variants: []string{"%s", "%s bird", "%s species"},
		keywords: []string{"bird", "birds", "species of bird", "passerine", "raptor", "wader", "seabird"},
	},
}

var defaultLangProfile = langProfile{
	variants: []string{"%s"},
	keywords: langProfiles["en"].keywords,
}

// WikipediaProvider implements Provider against the MediaWiki search API and
// the REST page summary endpoint, walking languages in priority order.
type WikipediaProvider struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	languages  []string
	userAgent  string
	debug      bool

	// baseURL formats a language code into an API host, swapped in tests.
	baseURL func(lang string) string
}

func NewWikipediaProvider(settings *conf.Settings) *WikipediaProvider {
	languages := settings.Wiki.Languages
	if len(languages) == 0 {
		languages = []string{"es", "en"}
	}
	contact := settings.Wiki.Contact
	if contact == "" {
		contact = "https://github.com/wingman2025/birdtarifa"
	}
	return &WikipediaProvider{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
		languages:  languages,
		userAgent:  buildUserAgent(settings.Version, contact),
		debug:      settings.Debug,
		baseURL: func(lang string) string {
			return fmt.Sprintf("https://%s.wikipedia.org", lang)
		},
	}
}

// buildUserAgent follows the Wikimedia robot policy format:
// <name>/<version> (<contact>) <library>/<version>
func buildUserAgent(version, contact string) string {
	if version == "" {
		version = "unknown"
	}
	return fmt.Sprintf("%s/%s (%s) %s/%s", userAgentName, version, contact, userAgentLibrary, runtime.Version())
}

// Lookup walks languages and query variants lazily: candidates are fetched
// one at a time and the first accepted candidate with a photo wins. With no
// photo anywhere, the first accepted candidate is returned.
func (p *WikipediaProvider) Lookup(ctx context.Context, species string) (*BirdInfo, error) {
	species = strings.TrimSpace(species)
	if species == "" {
		return nil, nil
	}
	reqID := uuid.New().String()[:8]

	for _, lang := range p.languages {
		profile, ok := langProfiles[lang]
		if !ok {
			profile = defaultLangProfile
		}

		seen := make(map[string]struct{})
		var accepted *BirdInfo

		for _, variant := range profile.variants {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			query := strings.TrimSpace(fmt.Sprintf(variant, species))
			titles, err := p.searchTitles(ctx, lang, query, reqID)
			if err != nil {
				serviceLogger.Debug("wikipedia search failed",
					"request_id", reqID, "lang", lang, "query", query, "error", err)
				continue
			}

			for _, title := range titles {
				titleKey := strings.ToLower(title)
				if _, dup := seen[titleKey]; dup {
					continue
				}
				seen[titleKey] = struct{}{}

				info, err := p.fetchSummary(ctx, lang, title, reqID)
				if err != nil {
					serviceLogger.Debug("wikipedia summary failed",
						"request_id", reqID, "lang", lang, "title", title, "error", err)
					continue
				}
				if info == nil {
					continue
				}
				if !p.birdLike(info, profile.keywords) {
					if p.debug {
						serviceLogger.Debug("candidate rejected as not bird-like",
							"request_id", reqID, "lang", lang, "title", title)
					}
					continue
				}
				if info.PhotoURL != "" {
					return info, nil
				}
				if accepted == nil {
					accepted = info
				}
			}
		}

		if accepted != nil {
			return accepted, nil
		}
	}
	return nil, nil
}

// searchTitles runs one MediaWiki free-text search query and returns the
// candidate page titles.
func (p *WikipediaProvider) searchTitles(ctx context.Context, lang, query, reqID string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srlimit", fmt.Sprintf("%d", searchResultsPerQuery))
	params.Set("srsearch", query)
	params.Set("utf8", "1")
	endpoint := fmt.Sprintf("%s/w/api.php?%s", p.baseURL(lang), params.Encode())

	body, err := p.doRequest(ctx, endpoint, reqID)
	if err != nil {
		return nil, err
	}

	parsed, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return nil, errors.Newf("parsing search response: %v", err).
			Component("birdinfo").
			Category(errors.CategoryImageProvider).
			Context("request_id", reqID).
			Context("lang", lang).
			Build()
	}
	results, err := parsed.GetObjectArray("query", "search")
	if err != nil {
		// Missing result array means zero hits.
		return nil, nil
	}

	titles := make([]string, 0, len(results))
	for _, result := range results {
		title, err := result.GetString("title")
		if err != nil || strings.TrimSpace(title) == "" {
			continue
		}
		titles = append(titles, strings.TrimSpace(title))
	}
	return titles, nil
}

// restSummary is the REST page summary payload, reduced to the fields used.
type restSummary struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	Thumbnail   struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	OriginalImage struct {
		Source string `json:"source"`
	} `json:"originalimage"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// fetchSummary loads the page summary for a title. A missing page or a
// disambiguation page resolves to nil without error.
func (p *WikipediaProvider) fetchSummary(ctx context.Context, lang, title, reqID string) (*BirdInfo, error) {
	endpoint := fmt.Sprintf("%s/api/rest_v1/page/summary/%s", p.baseURL(lang), url.PathEscape(title))

	body, err := p.doRequest(ctx, endpoint, reqID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var payload restSummary
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Newf("parsing summary response: %v", err).
			Component("birdinfo").
			Category(errors.CategoryImageProvider).
			Context("request_id", reqID).
			Context("title", title).
			Build()
	}
	if payload.Type == "disambiguation" {
		return nil, nil
	}

	photoURL := strings.TrimSpace(payload.Thumbnail.Source)
	if photoURL == "" {
		photoURL = strings.TrimSpace(payload.OriginalImage.Source)
	}

	resolvedTitle := strings.TrimSpace(payload.Title)
	if resolvedTitle == "" {
		resolvedTitle = title
	}

	return &BirdInfo{
		Title:       resolvedTitle,
		Description: strings.TrimSpace(payload.Description),
		Extract:     strings.TrimSpace(payload.Extract),
		PhotoURL:    photoURL,
		PageURL:     strings.TrimSpace(payload.ContentURLs.Desktop.Page),
		Source:      "wikipedia:" + lang,
	}, nil
}

func (p *WikipediaProvider) doRequest(ctx context.Context, endpoint, reqID string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, errors.Newf("creating request: %v", err).
			Component("birdinfo").
			Category(errors.CategoryImageProvider).
			Context("request_id", reqID).
			Build()
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Newf("wikipedia request failed: %v", err).
			Component("birdinfo").
			Category(errors.CategoryNetwork).
			Context("request_id", reqID).
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Newf("page not found").
			Component("birdinfo").
			Category(errors.CategoryNotFound).
			Context("request_id", reqID).
			Build()
	}
	if resp.StatusCode >= 400 {
		return nil, errors.Newf("wikipedia returned status %d", resp.StatusCode).
			Component("birdinfo").
			Category(errors.CategoryNetwork).
			Context("request_id", reqID).
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf("reading response body: %v", err).
			Component("birdinfo").
			Category(errors.CategoryNetwork).
			Context("request_id", reqID).
			Build()
	}
	return body, nil
}

// birdLike reports whether a candidate page looks like a bird article by
// matching language keyword hints against its title, description and
// extract. Search snippets are not consulted: they quote arbitrary article
// text, including pages that merely mention a bird.
func (p *WikipediaProvider) birdLike(info *BirdInfo, keywords []string) bool {
	haystacks := []string{info.Title, info.Description, info.Extract}
	for _, keyword := range keywords {
		for _, haystack := range haystacks {
			if containsKeyword(haystack, keyword) {
				return true
			}
		}
	}
	return false
}

// containsKeyword matches phrases as substrings and single words on word
// boundaries, so "ave" never matches inside unrelated words.
func containsKeyword(text, keyword string) bool {
	if text == "" {
		return false
	}
	text = strings.ToLower(text)
	keyword = strings.ToLower(keyword)
	if strings.Contains(keyword, " ") {
		return strings.Contains(text, keyword)
	}
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		if word == keyword {
			return true
		}
	}
	return false
}
