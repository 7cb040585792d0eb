package testing

import (
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/getmockd/mockserver/pkg/handler"
)

// RequestLog is a request received by a MockServer.
type RequestLog struct {
	ID      string
	Method  string
	Path    string
	Query   url.Values
	Header  http.Header
	Body    string
	TLS     bool
	Arrived time.Time
}

func newRequestLog(req *handler.Request) RequestLog {
	return RequestLog{
		ID:      req.ID,
		Method:  req.Method,
		Path:    req.Path,
		Query:   req.Query,
		Header:  req.Header,
		Body:    string(req.Body),
		TLS:     req.TLS,
		Arrived: time.Now(),
	}
}

// AssertMethod asserts that the request used the expected HTTP method.
func (r *RequestLog) AssertMethod(t testing.TB, expected string) {
	t.Helper()

	if !strings.EqualFold(r.Method, expected) {
		t.Errorf("request method mismatch\nexpected: %q\nactual: %q", expected, r.Method)
	}
}

// AssertPath asserts that the request path matches, {name} segments
// matching any value.
func (r *RequestLog) AssertPath(t testing.TB, expected string) {
	t.Helper()

	if !matchesPath(r.Path, expected) {
		t.Errorf("request path mismatch\nexpected: %q\nactual: %q", expected, r.Path)
	}
}

// AssertHeader asserts that the request carried header key with the
// expected first value.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	if len(r.Header.Values(key)) == 0 {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual := r.Header.Get(key); actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertQueryParam asserts that the request had query parameter key with the
// expected first value.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	if !r.Query.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := r.Query.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertBody asserts that the request body exactly matches the expected string.
func (r *RequestLog) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if r.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertBodyContains asserts that the request body contains substr.
func (r *RequestLog) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()

	if !strings.Contains(r.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// AssertJSONBody asserts that the request body is JSON equal to expected.
// expected may be a string, a []byte or any value that encodes to JSON.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	want, err := normalizeJSON(expected)
	if err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}

	var got any
	if err := json.Unmarshal([]byte(r.Body), &got); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(got, want) {
		wantBytes, _ := json.MarshalIndent(want, "", "  ")
		gotBytes, _ := json.MarshalIndent(got, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s", wantBytes, gotBytes)
	}
}

// JSONField extracts a dot-separated field from the JSON body. It returns
// nil if the body is not a JSON object or the field does not exist.
func (r *RequestLog) JSONField(field string) any {
	var current any
	if err := json.Unmarshal([]byte(r.Body), &current); err != nil {
		return nil
	}

	for part := range strings.SplitSeq(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[part]
	}
	return current
}

// normalizeJSON turns expected into the generic form json.Unmarshal produces.
func normalizeJSON(expected any) (any, error) {
	var data []byte
	switch v := expected.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// matchesPath reports whether actual matches expected, where an expected
// segment written as {name} matches any single segment.
func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}

	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")
	if len(actualParts) != len(expectedParts) {
		return false
	}

	for i, exp := range expectedParts {
		if strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}") {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}
	return true
}
