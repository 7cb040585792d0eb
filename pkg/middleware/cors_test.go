package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("app"))
	})
}

func TestCORS_SimpleRequest(t *testing.T) {
	t.Parallel()

	called := false
	h := CORS()(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "app", rec.Body.String())
}

func TestCORS_NoOrigin(t *testing.T) {
	t.Parallel()

	called := false
	h := CORS()(okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	called := false
	h := CORS()(okHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/api", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	req.Header.Set("Access-Control-Request-Headers", "X-Custom-Token, Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called, "preflight must not reach the handler")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Equal(t, "X-Custom-Token, Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_OptionsWithoutRequestMethodReachesHandler(t *testing.T) {
	t.Parallel()

	called := false
	h := CORS()(okHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/api", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
}

func TestCORSWithConfig(t *testing.T) {
	t.Parallel()

	called := false
	h := CORSWithConfig(CORSConfig{
		AllowHeaders:  []string{"X-Only"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        60,
	})(okHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://a")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "X-Other")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "X-Only", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "X-Request-Id", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "60", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}
