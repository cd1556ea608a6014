package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_CORS(t *testing.T) {
	router := NewRouter(NewHandler(&mockQueryService{}, nil, nil), 0)

	rec := doRequest(t, router, http.MethodOptions, "/api/v1/query", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	rec = doRequest(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := NewRouter(NewHandler(&mockQueryService{}, nil, nil), 0)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/query", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/v1/query", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/history", http.StatusMethodNotAllowed},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doRequest(t, router, tt.method, tt.path, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	router := NewRouter(NewHandler(&mockQueryService{size: 1}, nil, nil), 2)

	var codes []int
	for range 5 {
		rec := doRequest(t, router, http.MethodGet, "/health", "")
		codes = append(codes, rec.Code)
	}

	require.Len(t, codes, 5)
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Contains(t, codes[2:], http.StatusTooManyRequests)
}

func TestRouter_RateLimitDisabled(t *testing.T) {
	router := NewRouter(NewHandler(&mockQueryService{size: 1}, nil, nil), 0)

	for range 20 {
		rec := doRequest(t, router, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRouter_RateLimitResponse(t *testing.T) {
	router := NewRouter(NewHandler(&mockQueryService{size: 1}, nil, nil), 0.5)

	first := doRequest(t, router, http.MethodGet, "/health", "")
	second := doRequest(t, router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate limit exceeded")
}
