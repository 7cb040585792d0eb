package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getmockd/mockserver/pkg/logging"
)

func TestAccessLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})

	h := AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/kettle", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "method=PUT")
	assert.Contains(t, buf.String(), "path=/kettle")
	assert.Contains(t, buf.String(), "status=418")
}

func TestAccessLog_ImplicitOK(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})

	h := AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "status=200")
}

func TestAccessLog_InfoLevelSilent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := AccessLog(logging.New(logging.Config{Output: &buf}))(http.NotFoundHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, buf.String())
}
