package geo

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/utils"
)

const (
	locationIQURL   = "https://us1.locationiq.com/v1/search"
	userAgent       = "spigell/job-matcher"
	contentType     = "application/json"
	maxLoggedBody   = 200
	contentEncoding = "gzip"
)

// LocationIQ is a Provider backed by the LocationIQ search API.
type LocationIQ struct {
	key        string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	Language   string
}

type place struct {
	Lat         string         `json:"lat"`
	Lon         string         `json:"lon"`
	DisplayName string         `json:"display_name"`
	Address     map[string]any `json:"address"`
}

type address struct {
	City        string `mapstructure:"city"`
	Town        string `mapstructure:"town"`
	Village     string `mapstructure:"village"`
	Country     string `mapstructure:"country"`
	CountryCode string `mapstructure:"country_code"`
}

func NewLocationIQ(logger *zap.Logger, key string) *LocationIQ {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationIQ{
		key:        key,
		logger:     logger,
		HTTPClient: &http.Client{},
		UserAgent:  userAgent,
		APIURL:     locationIQURL,
		Language:   "en",
	}
}

func (c *LocationIQ) Lookup(ctx context.Context, query string) (*Location, error) {
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")
	q.Set("accept-language", c.Language)

	var places []place
	if err := c.getJSON(ctx, c.APIURL, q, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, ErrNotFound
	}
	return places[0].toLocation(query)
}

func (p place) toLocation(query string) (*Location, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", p.Lon, err)
	}

	var addr address
	if p.Address != nil {
		if err := mapstructure.WeakDecode(p.Address, &addr); err != nil {
			return nil, fmt.Errorf("decode address: %w", err)
		}
	}
	city := addr.City
	if city == "" {
		city = addr.Town
	}
	if city == "" {
		city = addr.Village
	}

	return &Location{
		Query:       query,
		DisplayName: p.DisplayName,
		Latitude:    lat,
		Longitude:   lon,
		City:        city,
		Country:     addr.Country,
		CountryCode: addr.CountryCode,
	}, nil
}

func (c *LocationIQ) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func (c *LocationIQ) getJSON(ctx context.Context, apiURL string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("query", q.Get("q")))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// LocationIQ answers 404 when nothing matches the query.
		return ErrNotFound
	default:
		c.logger.Debug("unexpected geocoder response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", utils.TruncateForLog(string(data), maxLoggedBody)),
		)
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}
