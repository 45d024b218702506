package countries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orsreshef/travel-route-planner/internal/platform/obs"
	"github.com/orsreshef/travel-route-planner/internal/ports"
)

const DefaultBaseURL = "https://restcountries.com/v3.1"

// Client implements CapitalLookup against the REST Countries API.
type Client struct {
	session *http.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type countryResponse []struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Capital []string `json:"capital"`
}

// Capital returns the first listed capital of country. Names are matched
// by the API, so "france" and "French Republic" both work.
func (c *Client) Capital(ctx context.Context, country string) (_ string, err error) {
	defer obs.Time(ctx, "countries.Capital")(&err)

	country = strings.TrimSpace(country)
	if country == "" {
		return "", fmt.Errorf("capital: %w: empty country", ports.ErrLocationNotFound)
	}

	endpoint := fmt.Sprintf("%s/name/%s?fields=name,capital", c.baseURL, url.PathEscape(country))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.session.Do(req)
	if err != nil {
		return "", fmt.Errorf("capital %q: %w", country, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("capital %q: %w", country, ports.ErrLocationNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("capital %q: unexpected status: %d", country, resp.StatusCode)
	}

	var decoded countryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode countries response: %w", err)
	}

	// Prefer an exact common-name match; partial matches come back too.
	for _, entry := range decoded {
		if strings.EqualFold(entry.Name.Common, country) && len(entry.Capital) > 0 {
			return entry.Capital[0], nil
		}
	}
	for _, entry := range decoded {
		if len(entry.Capital) > 0 {
			return entry.Capital[0], nil
		}
	}

	return "", fmt.Errorf("capital %q: %w", country, ports.ErrLocationNotFound)
}
