// Package testing starts mock servers inside Go tests and records the
// requests they receive.
//
// # Basic Usage
//
//	func TestClient(t *testing.T) {
//	    mock := mocktesting.New(t, mocktesting.WithResponse(200, `{"ok":true}`))
//
//	    resp, err := mock.Client().Post(mock.URL()+"/users/42", "application/json",
//	        strings.NewReader(`{"name":"Alice"}`))
//	    // ...
//
//	    mock.AssertCalled(t, "POST", "/users/{id}")
//	    req := mock.LastRequest()
//	    req.AssertHeader(t, "Content-Type", "application/json")
//	    req.AssertJSONBody(t, map[string]string{"name": "Alice"})
//	}
//
// The server listens on a free loopback port and is stopped when the test
// ends. WithHandler supplies custom behaviour; WithTLS serves HTTPS with a
// generated certificate that Client trusts.
package testing
