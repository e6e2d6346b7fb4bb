package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/savdohub/ranking-engine/internal/domain/providers"
)

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware provides HTTP response caching
type CacheMiddleware struct {
	cache        providers.CacheProvider
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a new cache middleware. Only read-mostly
// analytics routes are cached; ranking responses depend on the caller
// and stay uncached.
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return &CacheMiddleware{
		cache: cache,
		routeConfigs: map[string]CacheConfig{
			"/api/tags/":        {TTLSeconds: 300, Enabled: true}, // 5 minutes (prefix match)
			"/api/listings/":    {TTLSeconds: 120, Enabled: true}, // 2 minutes (health scores)
			"/api/experiments/": {TTLSeconds: 60, Enabled: true},  // 1 minute (results)
		},
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only cache GET requests
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		if m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := m.generateCacheKey(r)

		cached, err := m.cache.Get(r.Context(), cacheKey)
		if err == nil && len(cached) > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write(cached); err != nil {
				zlog.Warn().Err(err).Msg("failed to write cached response")
			}
			return
		}

		recorder := &cacheResponseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}

		next.ServeHTTP(recorder, r)

		// Only cache successful responses
		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				zlog.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache response")
			}
		}
	})
}

// generateCacheKey creates a cache key from the request
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	raw := fmt.Sprintf("%s:%s?%s", r.Method, r.URL.Path, r.URL.RawQuery)
	hash := sha256.Sum256([]byte(raw))
	return "http:cache:" + hex.EncodeToString(hash[:])
}

// getRouteConfig finds the cache configuration for a route by prefix match
func (m *CacheMiddleware) getRouteConfig(path string) CacheConfig {
	for prefix, config := range m.routeConfigs {
		if strings.HasPrefix(path, prefix) {
			return config
		}
	}
	return CacheConfig{Enabled: false}
}

// InvalidateCache removes cached entries for a key
func (m *CacheMiddleware) InvalidateCache(r *http.Request, key string) error {
	if m.cache == nil {
		return nil
	}
	return m.cache.Delete(r.Context(), key)
}

// cacheResponseRecorder captures the response for caching while also
// writing it through to the client
type cacheResponseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rec *cacheResponseRecorder) WriteHeader(statusCode int) {
	rec.statusCode = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}

func (rec *cacheResponseRecorder) Write(b []byte) (int, error) {
	rec.body.Write(b)
	return rec.ResponseWriter.Write(b)
}
