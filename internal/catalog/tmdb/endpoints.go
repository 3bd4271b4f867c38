package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/domain"
)

var _ catalog.Client = (*Client)(nil)
var _ catalog.TokenSetter = (*Client)(nil)

type genreList struct {
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type itemPage struct {
	Results []domain.Item `json:"results"`
}

type releaseDates struct {
	Results []struct {
		Country string `json:"iso_3166_1"`
		Dates   []struct {
			Certification string `json:"certification"`
		} `json:"release_dates"`
	} `json:"results"`
}

type videoList struct {
	Results []struct {
		Key  string `json:"key"`
		Site string `json:"site"`
		Type string `json:"type"`
	} `json:"results"`
}

type providerEntry struct {
	ID   int    `json:"provider_id"`
	Name string `json:"provider_name"`
	Logo string `json:"logo_path"`
}

type watchProviders struct {
	Results map[string]struct {
		Link     string          `json:"link"`
		Flatrate []providerEntry `json:"flatrate"`
		Rent     []providerEntry `json:"rent"`
		Buy      []providerEntry `json:"buy"`
	} `json:"results"`
}

type providerList struct {
	Results []providerEntry `json:"results"`
}

// ListGenres returns the genre id to name table for a locale.
func (c *Client) ListGenres(ctx context.Context, locale string) (map[int]string, error) {
	var out genreList
	params := url.Values{"language": {locale}}
	if err := c.get(ctx, "genres", "/genre/movie/list", params, &out); err != nil {
		return nil, err
	}

	genres := make(map[int]string, len(out.Genres))
	for _, g := range out.Genres {
		genres[g.ID] = g.Name
	}
	return genres, nil
}

// Discover fetches one page of the discovery endpoint.
func (c *Client) Discover(ctx context.Context, q catalog.DiscoverQuery) ([]domain.Item, error) {
	params := url.Values{
		"page":          {strconv.Itoa(max(q.Page, 1))},
		"include_adult": {"false"},
		"include_video": {"false"},
	}
	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	if q.MinVoteCount > 0 {
		params.Set("vote_count.gte", strconv.Itoa(q.MinVoteCount))
	}
	if len(q.WithGenres) > 0 {
		params.Set("with_genres", joinInts(q.WithGenres, "|"))
	}
	if q.WatchRegion != "" && len(q.WithProviders) > 0 {
		params.Set("watch_region", q.WatchRegion)
		params.Set("with_watch_providers", joinInts(q.WithProviders, "|"))
	}
	if q.CertificationCountry != "" && q.CertificationLTE != "" {
		params.Set("certification_country", q.CertificationCountry)
		params.Set("certification.lte", q.CertificationLTE)
	}

	var out itemPage
	if err := c.get(ctx, "discover", "/discover/movie", params, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Search runs a free-text title search.
func (c *Client) Search(ctx context.Context, query, locale string) ([]domain.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Item{}, nil
	}
	params := url.Values{
		"query":         {query},
		"include_adult": {"false"},
	}
	if locale != "" {
		params.Set("language", locale)
	}

	var out itemPage
	if err := c.get(ctx, "search", "/search/movie", params, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Certification returns the first non-empty age rating for region, or "".
func (c *Client) Certification(ctx context.Context, id int, region string) (string, error) {
	var out releaseDates
	if err := c.get(ctx, "certification", fmt.Sprintf("/movie/%d/release_dates", id), nil, &out); err != nil {
		return "", err
	}

	for _, r := range out.Results {
		if !strings.EqualFold(r.Country, region) {
			continue
		}
		for _, d := range r.Dates {
			if cert := strings.TrimSpace(d.Certification); cert != "" {
				return cert, nil
			}
		}
	}
	return "", nil
}

// TrailerURL returns a YouTube link to the first trailer, falling back to a
// teaser. Returns "" when there is none.
func (c *Client) TrailerURL(ctx context.Context, id int, locale string) (string, error) {
	params := url.Values{}
	if locale != "" {
		params.Set("language", locale)
		if lang, _, ok := strings.Cut(locale, "-"); ok {
			params.Set("include_video_language", lang+",en,null")
		}
	}

	var out videoList
	if err := c.get(ctx, "videos", fmt.Sprintf("/movie/%d/videos", id), params, &out); err != nil {
		return "", err
	}

	for _, kind := range []string{"Trailer", "Teaser"} {
		for _, v := range out.Results {
			if v.Site == "YouTube" && v.Type == kind && v.Key != "" {
				return "https://www.youtube.com/watch?v=" + url.QueryEscape(v.Key), nil
			}
		}
	}
	return "", nil
}

// WatchProviders returns where a title streams in region.
func (c *Client) WatchProviders(ctx context.Context, id int, region string) (catalog.Providers, error) {
	var out watchProviders
	if err := c.get(ctx, "providers", fmt.Sprintf("/movie/%d/watch/providers", id), nil, &out); err != nil {
		return catalog.Providers{}, err
	}

	res := catalog.Providers{Names: map[int]string{}}
	entry, ok := out.Results[strings.ToUpper(region)]
	if !ok {
		return res, nil
	}
	res.Link = entry.Link
	for _, group := range [][]providerEntry{entry.Flatrate, entry.Rent, entry.Buy} {
		for _, p := range group {
			if _, dup := res.Names[p.ID]; !dup {
				res.Names[p.ID] = p.Name
			}
		}
	}
	return res, nil
}

// ListProviders returns the streaming services available in region.
func (c *Client) ListProviders(ctx context.Context, locale, region string) ([]catalog.Provider, error) {
	params := url.Values{}
	if locale != "" {
		params.Set("language", locale)
	}
	if region != "" {
		params.Set("watch_region", region)
	}

	var out providerList
	if err := c.get(ctx, "provider_list", "/watch/providers/movie", params, &out); err != nil {
		return nil, err
	}

	providers := make([]catalog.Provider, 0, len(out.Results))
	for _, p := range out.Results {
		providers = append(providers, catalog.Provider{ID: p.ID, Name: p.Name, Logo: p.Logo})
	}
	return providers, nil
}

func joinInts(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}
