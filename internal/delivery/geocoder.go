package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/correlation"
)

// Geocoder resolves a free-form address. A nil result with a nil error
// means the address was not found.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

type NominatimGeocoder struct {
	BaseURL   *url.URL
	UserAgent string
	HTTP      *http.Client
}

func NewNominatimGeocoder(baseURL, userAgent string, httpClient *http.Client) (*NominatimGeocoder, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid geocoder base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &NominatimGeocoder{BaseURL: u, UserAgent: userAgent, HTTP: httpClient}, nil
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)
	u := g.BaseURL.ResolveReference(&url.URL{Path: strings.TrimSuffix(g.BaseURL.Path, "/") + "/search", RawQuery: q.Encode()})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}
	if cid := correlation.FromContext(ctx); cid != "" {
		req.Header.Set(correlation.Header, cid)
	}

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeocodeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrGeocodeUnavailable, resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", places[0].Lon, err)
	}
	return &Coordinates{Lat: lat, Lng: lng}, nil
}

// GeocodeCache stores successful lookups keyed by normalized address.
type GeocodeCache interface {
	Get(ctx context.Context, address string) (Coordinates, bool, error)
	Set(ctx context.Context, address string, c Coordinates) error
}

// CachedGeocoder consults the cache before the wrapped geocoder. Cache
// errors are logged and otherwise ignored; misses are not cached.
type CachedGeocoder struct {
	next  Geocoder
	cache GeocodeCache
	log   *zap.Logger
}

func NewCachedGeocoder(next Geocoder, cache GeocodeCache, log *zap.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache, log: log}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	key := NormalizeAddress(address)

	c, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		g.log.Warn("geocode cache read failed", zap.Error(err))
	} else if ok {
		return &c, nil
	}

	found, err := g.next.Geocode(ctx, address)
	if err != nil || found == nil {
		return found, err
	}

	if err := g.cache.Set(ctx, key, *found); err != nil {
		g.log.Warn("geocode cache write failed", zap.Error(err))
	}
	return found, nil
}

// NormalizeAddress lower-cases and collapses whitespace.
func NormalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
