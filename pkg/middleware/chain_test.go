package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tag(name string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	h := NewChain(tag("a", &order), nil, tag("b", &order)).Then(final)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestChain_AppendDoesNotMutate(t *testing.T) {
	t.Parallel()

	var order []string
	base := NewChain(tag("a", &order))
	extended := base.Append(tag("b", &order))

	assert.Len(t, base, 1)
	assert.Len(t, extended, 2)
}

func TestChain_Empty(t *testing.T) {
	t.Parallel()

	called := false
	h := Chain(nil).Then(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
}
