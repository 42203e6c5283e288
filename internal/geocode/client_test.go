package geocode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newKakaoTestClient points a Client at a local test server.
func newKakaoTestClient(srv *httptest.Server) *Client {
	c := NewClient("test-key", 2*time.Second, discardLogger())
	c.baseURL = srv.URL
	return c
}

func TestClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KakaoAK test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "서울 강남구 테헤란로 123", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"documents":[{"x":"127.033640","y":"37.500670"}],"meta":{"total_count":1}}`)
	}))
	defer srv.Close()

	coord, err := newKakaoTestClient(srv).Resolve(context.Background(), "서울 강남구 테헤란로 123")

	require.NoError(t, err)
	require.NotNil(t, coord)
	assert.InDelta(t, 37.500670, coord.Lat, 1e-9)
	assert.InDelta(t, 127.033640, coord.Lng, 1e-9)
}

func TestClientResolve_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"documents":[],"meta":{"total_count":0}}`)
	}))
	defer srv.Close()

	coord, err := newKakaoTestClient(srv).Resolve(context.Background(), "없는 주소")

	require.NoError(t, err)
	assert.Nil(t, coord, "empty result is not an error")
}

func TestClientResolve_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errorType":"AccessDeniedError"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newKakaoTestClient(srv).Resolve(context.Background(), "서울")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClientResolve_OutOfRangeResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"documents":[{"x":"139.650300","y":"35.676200"}]}`)
	}))
	defer srv.Close()

	coord, err := newKakaoTestClient(srv).Resolve(context.Background(), "서울")

	require.NoError(t, err)
	assert.Nil(t, coord, "coordinates outside the national box are discarded")
}
