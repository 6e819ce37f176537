package geo

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const berlinResponse = `[{
	"lat": "52.5170365",
	"lon": "13.3888599",
	"display_name": "Berlin, Germany",
	"address": {"city": "Berlin", "country": "Germany", "country_code": "de"}
}]`

func newTestLocationIQ(t *testing.T, handler http.HandlerFunc) *LocationIQ {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewLocationIQ(nil, "secret-key")
	c.APIURL = srv.URL
	c.HTTPClient = srv.Client()
	return c
}

func TestLocationIQLookup(t *testing.T) {
	c := newTestLocationIQ(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret-key", q.Get("key"))
		assert.Equal(t, "Berlin, Germany", q.Get("q"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "en", q.Get("accept-language"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_, _ = gz.Write([]byte(berlinResponse))
	})

	loc, err := c.Lookup(context.Background(), "Berlin, Germany")
	require.NoError(t, err)
	assert.Equal(t, "Berlin, Germany", loc.Query)
	assert.InDelta(t, 52.5170365, loc.Latitude, 1e-9)
	assert.InDelta(t, 13.3888599, loc.Longitude, 1e-9)
	assert.Equal(t, "Berlin", loc.City)
	assert.Equal(t, "de", loc.CountryCode)
}

func TestLocationIQTownFallback(t *testing.T) {
	c := newTestLocationIQ(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "1.5", "lon": "2.5", "address": {"town": "Smalltown", "country_code": "nl"}}]`))
	})

	loc, err := c.Lookup(context.Background(), "Smalltown")
	require.NoError(t, err)
	assert.Equal(t, "Smalltown", loc.City)
	assert.Equal(t, "nl", loc.CountryCode)
}

func TestLocationIQErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		notFound bool
	}{
		{name: "no match", status: http.StatusNotFound, body: `{"error":"Unable to geocode"}`, notFound: true},
		{name: "empty list", status: http.StatusOK, body: `[]`, notFound: true},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "bad coordinates", status: http.StatusOK, body: `[{"lat": "north", "lon": "1"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestLocationIQ(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Lookup(context.Background(), "anything")
			require.Error(t, err)
			if tt.notFound {
				assert.ErrorIs(t, err, ErrNotFound)
			} else {
				assert.NotErrorIs(t, err, ErrNotFound)
			}
		})
	}
}
