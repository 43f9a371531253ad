// Package movies implements a thin client for the external movie-search
// provider. It issues a single GET per search and normalizes the provider's
// result shape into Movie values the handlers can return directly.
//
// The client carries no retry logic: search is interactive and the UI would
// rather show "no results" than block on backoff. Provider outages surface as
// errors and the handler degrades to an empty list.
package movies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Movie is one search result from the external provider.
type Movie struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Year              int      `json:"year"`
	Type              string   `json:"type"`
	PosterURL         string   `json:"posterUrl"`
	Genres            []string `json:"genres"`
	Rating            string   `json:"rating"`
	Overview          string   `json:"overview"`
	StreamingServices []string `json:"streamingServices"`
}

// Client calls the movie-search provider. BaseURL must be set; a zero
// Timeout falls back to 10 seconds.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
}

// providerResult is the provider's wire shape for one title.
type providerResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ReleaseYear int    `json:"releaseYear"`
	ShowType    string `json:"showType"`
	Overview    string `json:"overview"`
	Rating      string `json:"rating"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ImageSet struct {
		VerticalPoster struct {
			W342 string `json:"w342"`
		} `json:"verticalPoster"`
	} `json:"imageSet"`
	StreamingOptions map[string][]struct {
		Service struct {
			Name string `json:"name"`
		} `json:"service"`
	} `json:"streamingOptions"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Search queries the provider by title. An empty query returns an empty
// slice without a network call.
func (c *Client) Search(ctx context.Context, query string) ([]Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Movie{}, nil
	}
	if c.BaseURL == "" {
		return nil, fmt.Errorf("movies: no provider configured")
	}

	params := url.Values{}
	params.Set("title", query)
	params.Set("country", "us")
	params.Set("show_type", "movie")
	params.Set("output_language", "en")
	u := strings.TrimRight(c.BaseURL, "/") + "/shows/search/title?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("movies: unexpected status %s", resp.Status)
	}

	var results []providerResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("movies: decode response: %w", err)
	}

	out := make([]Movie, 0, len(results))
	for _, r := range results {
		out = append(out, r.toMovie())
	}
	return out, nil
}

func (r providerResult) toMovie() Movie {
	genres := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		genres = append(genres, g.Name)
	}

	// De-duplicate service names across regions.
	seen := make(map[string]struct{})
	var services []string
	for _, opts := range r.StreamingOptions {
		for _, o := range opts {
			if _, ok := seen[o.Service.Name]; ok {
				continue
			}
			seen[o.Service.Name] = struct{}{}
			services = append(services, o.Service.Name)
		}
	}

	return Movie{
		ID:                r.ID,
		Title:             r.Title,
		Year:              r.ReleaseYear,
		Type:              r.ShowType,
		PosterURL:         r.ImageSet.VerticalPoster.W342,
		Genres:            genres,
		Rating:            r.Rating,
		Overview:          r.Overview,
		StreamingServices: services,
	}
}
