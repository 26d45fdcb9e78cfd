// Package listings fetches market comparables from an upstream
// listing search site. It is a caller-side collaborator: the valuation
// engine itself never touches the network.
package listings

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/cwhited/dealerval/internal/cache"
	"github.com/cwhited/dealerval/internal/model"
	"github.com/cwhited/dealerval/internal/ratelimit"
)

// Config holds listing client settings.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	CachePath      string
	CacheTTL       time.Duration
	UserAgent      string
	MaxRetries     int
}

// DefaultConfig returns settings suitable for interactive use.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		RequestTimeout: 15 * time.Second,
		CacheTTL:       6 * time.Hour,
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
		MaxRetries:     2,
	}
}

// Client searches for comparable listings with caching and rate
// limiting.
type Client struct {
	cfg     Config
	client  *http.Client
	store   *cache.Store
	limiter *ratelimit.Limiter
}

// NewClient builds a Client. A cache open failure disables caching
// rather than failing the client.
func NewClient(cfg Config) *Client {
	c := &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: ratelimit.New(10, 6*time.Second),
	}
	if cfg.CachePath != "" {
		store, err := cache.Open(cfg.CachePath)
		if err != nil {
			log.Printf("[WARN] listings cache disabled: %v", err)
		} else {
			c.store = store
		}
	}
	return c
}

// Available reports whether the client is configured with an upstream.
func (c *Client) Available() bool {
	return c != nil && c.cfg.BaseURL != ""
}

// Search returns active comparable listings for the given spec near
// the zip code.
func (c *Client) Search(spec model.VehicleSpec, zip string, radiusMiles int) ([]model.ComparableListing, error) {
	if !c.Available() {
		return nil, fmt.Errorf("listing search not configured")
	}

	key := cache.SearchKey(spec.Year, spec.Make, spec.Model, spec.Trim, zip, radiusMiles)
	if c.store != nil {
		var cached []model.ComparableListing
		if c.store.Lookup(key, &cached) {
			return cached, nil
		}
	}

	comps, err := c.fetchWithRetry(spec, zip, radiusMiles)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Save(key, comps, c.cfg.CacheTTL); err != nil {
			log.Printf("[WARN] cache listing search: %v", err)
		}
	}
	return comps, nil
}

func (c *Client) fetchWithRetry(spec model.VehicleSpec, zip string, radiusMiles int) ([]model.ComparableListing, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
		c.limiter.Wait()

		comps, err := c.fetch(spec, zip, radiusMiles)
		if err == nil {
			return comps, nil
		}
		lastErr = err
		log.Printf("[WARN] listing search attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("listing search failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) fetch(spec model.VehicleSpec, zip string, radiusMiles int) ([]model.ComparableListing, error) {
	u, err := url.Parse(c.cfg.BaseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("build search url: %w", err)
	}
	q := u.Query()
	q.Set("year", fmt.Sprintf("%d", spec.Year))
	q.Set("make", spec.Make)
	q.Set("model", spec.Model)
	if spec.Trim != "" {
		q.Set("trim", spec.Trim)
	}
	q.Set("zip", zip)
	q.Set("radius", fmt.Sprintf("%d", radiusMiles))
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setBrowserHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := c.decodedBody(resp)
	if err != nil {
		return nil, err
	}
	return ParseSearchResults(body, time.Now())
}

func (c *Client) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
}

// decodedBody unwraps the response's content encoding.
func (c *Client) decodedBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gz, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
