package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORS response and request header names.
const (
	headerOrigin              = "Origin"
	headerRequestMethod       = "Access-Control-Request-Method"
	headerRequestHeaders      = "Access-Control-Request-Headers"
	headerAllowOrigin         = "Access-Control-Allow-Origin"
	headerAllowMethods        = "Access-Control-Allow-Methods"
	headerAllowHeaders        = "Access-Control-Allow-Headers"
	headerExposeHeaders       = "Access-Control-Expose-Headers"
	headerMaxAge              = "Access-Control-Max-Age"
	defaultCORSMaxAgeSeconds  = 86400
	wildcardOrigin            = "*"
	defaultAllowHeadersOnMiss = "Content-Type, Authorization, X-Requested-With, Accept, Origin"
)

// CORSConfig controls the permissive CORS decorator. Every origin is allowed.
type CORSConfig struct {
	// AllowMethods is sent on preflight responses.
	// Default: GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD
	AllowMethods []string
	// AllowHeaders fixes the allowed request headers. When empty, whatever the
	// client asks for in Access-Control-Request-Headers is allowed.
	AllowHeaders []string
	// ExposeHeaders lists response headers readable by browser scripts.
	ExposeHeaders []string
	// MaxAge is the preflight cache duration in seconds. Default: 86400.
	MaxAge int
}

// AnyOriginCORSConfig allows every origin and every requested header.
func AnyOriginCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		MaxAge:       defaultCORSMaxAgeSeconds,
	}
}

// CORSHandler wraps an http.Handler with permissive CORS handling.
type CORSHandler struct {
	handler http.Handler
	config  CORSConfig
}

// CORS returns a Middleware that allows any origin and all requested headers.
func CORS() Middleware {
	return CORSWithConfig(AnyOriginCORSConfig())
}

// CORSWithConfig returns a CORS Middleware using cfg.
func CORSWithConfig(cfg CORSConfig) Middleware {
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = AnyOriginCORSConfig().AllowMethods
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultCORSMaxAgeSeconds
	}
	return func(next http.Handler) http.Handler {
		return &CORSHandler{handler: next, config: cfg}
	}
}

// ServeHTTP implements http.Handler. Requests without an Origin header are
// not cross-origin and pass through untouched.
func (c *CORSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(headerOrigin) == "" {
		c.handler.ServeHTTP(w, r)
		return
	}

	h := w.Header()
	h.Set(headerAllowOrigin, wildcardOrigin)
	if len(c.config.ExposeHeaders) > 0 {
		h.Set(headerExposeHeaders, strings.Join(c.config.ExposeHeaders, ", "))
	}

	if r.Method != http.MethodOptions || r.Header.Get(headerRequestMethod) == "" {
		c.handler.ServeHTTP(w, r)
		return
	}

	// Preflight
	h.Set(headerAllowMethods, strings.Join(c.config.AllowMethods, ", "))
	h.Set(headerAllowHeaders, c.allowHeaders(r))
	h.Set(headerMaxAge, strconv.Itoa(c.config.MaxAge))
	w.WriteHeader(http.StatusOK)
}

func (c *CORSHandler) allowHeaders(r *http.Request) string {
	if len(c.config.AllowHeaders) > 0 {
		return strings.Join(c.config.AllowHeaders, ", ")
	}
	if requested := r.Header.Values(headerRequestHeaders); len(requested) > 0 {
		return strings.Join(requested, ", ")
	}
	return defaultAllowHeadersOnMiss
}
