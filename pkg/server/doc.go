// Package server runs an embeddable HTTP/HTTPS server for use in tests and
// local tooling.
//
// A server is configured through a Builder (or a Config passed to New) and
// is returned already bound and serving:
//
//	srv, err := server.WithHandler(h).HTTP(0).CORSEnabled(true).Build()
//	if err != nil {
//		return err
//	}
//	defer srv.Stop().Wait(ctx)
//	resp, err := http.Get(srv.URL() + "/users")
//
// Port 0 asks the OS for a free port; Port reports the one assigned. Servers
// bind to 127.0.0.1 unless Local(false) is set.
//
// Every server reserves AdminStopPath. Any request to it gets 202 Accepted
// and starts the same teardown as Stop. Stop never blocks: it returns a
// StopHandle whose Done channel closes once the listener is released and
// in-flight requests have finished or been cut off after ShutdownTimeout.
//
// WaitForever blocks the caller until the server stops and cannot be
// cancelled. Programs that must also react to signals should use Wait with a
// context instead.
package server
