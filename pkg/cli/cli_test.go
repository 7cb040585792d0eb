package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockserver/pkg/config"
	"github.com/getmockd/mockserver/pkg/handler"
	mocktls "github.com/getmockd/mockserver/pkg/tls"
)

// syncBuffer is a bytes.Buffer safe for a writer and a poller.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var listeningPattern = regexp.MustCompile(`listening on (\S+)`)

// startServe runs "serve args..." in the background and returns the base
// URL it prints, the output buffer and the command's result channel.
func startServe(t *testing.T, ctx context.Context, args ...string) (string, *syncBuffer, <-chan error) {
	t.Helper()

	out := &syncBuffer{}
	root := NewRootCommand()
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"serve", "--log-level", "error"}, args...))

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		if m := listeningPattern.FindStringSubmatch(out.String()); m != nil {
			return m[1], out, done
		}
		select {
		case err := <-done:
			t.Fatalf("serve exited early: %v", err)
		case <-deadline:
			t.Fatal("serve did not report its address")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestServeAndStop(t *testing.T) {
	t.Parallel()

	base, out, done := startServe(t, context.Background(), "--port", "0", "--echo")

	resp, err := http.Post(base+"/hello?x=1", "text/plain", bytes.NewBufferString("hi"))
	require.NoError(t, err)
	var echo handler.EchoResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&echo))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/hello", echo.Path)
	assert.Equal(t, "hi", echo.Body)

	u, err := url.Parse(base)
	require.NoError(t, err)

	stopOut, err := runCommand(t, "stop", "--port", u.Port())
	require.NoError(t, err)
	assert.Contains(t, stopOut, "Stopped mock server at 127.0.0.1:"+u.Port())

	waitDone(t, done)
	assert.Contains(t, out.String(), "mockserver stopped")
}

func TestServe_HTTPSAndInsecureStop(t *testing.T) {
	t.Parallel()

	base, _, done := startServe(t, context.Background(), "--port", "0", "--https", "--auto-cert")
	u, err := url.Parse(base)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)

	_, err = runCommand(t, "stop", "--port", u.Port(), "--https")
	require.Error(t, err, "self-signed certificate must not verify")

	_, err = runCommand(t, "stop", "--port", u.Port(), "--https", "--insecure")
	require.NoError(t, err)
	waitDone(t, done)
}

func TestCertCommand_ServeAndStopWithCACert(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")

	out, err := runCommand(t, "cert", "--cert", certPath, "--key", keyPath, "--host", "mock.test", "--host", "10.1.2.3")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote certificate "+certPath)
	assert.Contains(t, out, "mock.test")
	assert.Contains(t, out, "10.1.2.3")

	_, err = runCommand(t, "cert", "--cert", certPath, "--key", keyPath)
	require.ErrorIs(t, err, mocktls.ErrCredentialExists)
	_, err = runCommand(t, "cert", "--cert", certPath, "--key", keyPath, "--force")
	require.NoError(t, err)

	base, _, done := startServe(t, context.Background(), "--port", "0", "--https", "--cert", certPath, "--key", keyPath)
	u, err := url.Parse(base)
	require.NoError(t, err)

	_, err = runCommand(t, "stop", "--port", u.Port(), "--ca-cert", filepath.Join(dir, "missing.crt"))
	require.ErrorIs(t, err, mocktls.ErrInvalidCredential)

	stopOut, err := runCommand(t, "stop", "--port", u.Port(), "--ca-cert", certPath)
	require.NoError(t, err)
	assert.Contains(t, stopOut, "Stopped mock server")
	waitDone(t, done)
}

func TestCertCommand_InvalidLifetime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := runCommand(t, "cert", "--cert", filepath.Join(dir, "c.crt"), "--key", filepath.Join(dir, "c.key"), "--valid-for", "0s")
	assert.Error(t, err)
}

func TestServe_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	_, out, done := startServe(t, ctx, "--port", "0")

	cancel()
	waitDone(t, done)
	assert.Contains(t, out.String(), "Shutting down")
}

func TestServe_RootFromConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello file"), 0o600))
	cfgPath := filepath.Join(dir, "mockserver.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("port: 0\ncors: true\nroot: "+dir+"\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	base, _, done := startServe(t, ctx, "--config", cfgPath)

	req, err := http.NewRequest(http.MethodGet, base+"/hello.txt", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello file", string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	cancel()
	waitDone(t, done)
}

func TestServe_InvalidFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "https without credentials", args: []string{"serve", "--port", "0", "--https"}},
		{name: "root and echo", args: []string{"serve", "--root", ".", "--echo"}},
		{name: "missing root", args: []string{"serve", "--port", "0", "--root", "/definitely/not/here"}},
		{name: "missing config", args: []string{"serve", "--config", "/definitely/not/here.yaml"}},
		{name: "positional args", args: []string{"serve", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := runCommand(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestStop_Rejected(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	_, err = runCommand(t, "stop", "--port", u.Port())
	assert.ErrorIs(t, err, ErrStopRejected)
}

func TestStop_NothingListening(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	ts.Close()

	_, err = runCommand(t, "stop", "--port", u.Port(), "--timeout", "1s")
	assert.Error(t, err)
}

func TestStop_RequiresPort(t *testing.T) {
	t.Parallel()

	_, err := runCommand(t, "stop")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, "config", "--port", "8080", "--cors", "--json")
	require.NoError(t, err)

	var cfg config.ServerConfig
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.CORS)
	assert.True(t, cfg.Local)
}

func TestConfigCommand_FlagsOverrideFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "in.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("port: 7000\ncors: true\nlog:\n  level: debug\n"), 0o600))
	outPath := filepath.Join(dir, "out.json")

	out, err := runCommand(t, "config", "--config", cfgPath, "--port", "7001", "--output", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, outPath)

	cfg, err := config.LoadFromFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Port)
	assert.True(t, cfg.CORS)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestConfigCommand_YAML(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, "config", "--https", "--auto-cert", "--shutdown-timeout", "3s")
	require.NoError(t, err)
	assert.Contains(t, out, "ssl: true")
	assert.Contains(t, out, "autoCert: true")
	assert.Contains(t, out, "shutdownTimeout: 3s")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := runCommand(t, "version", "--json")
	require.NoError(t, err)

	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, runtime.Version(), v.Go)
	assert.Equal(t, runtime.GOOS, v.OS)
	assert.NotEmpty(t, v.Version)

	out, err = runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mockserver ")
}
