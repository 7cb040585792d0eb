package handler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IndexFile is served for requests that resolve to a directory.
const IndexFile = "index.html"

// FileHandler serves static files below a root directory. Paths cannot
// escape the root, symlinks included. The directory is opened per request so
// files added while the server runs are picked up.
type FileHandler struct {
	dir string
}

// NewFileHandler returns a FileHandler for dir, which must be a directory.
func NewFileHandler(dir string) (*FileHandler, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", dir)
	}
	return &FileHandler{dir: dir}, nil
}

// Dir returns the directory being served.
func (h *FileHandler) Dir() string {
	return h.dir
}

// Handle implements Handler.
func (h *FileHandler) Handle(_ context.Context, req *Request) (*Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		resp := Text(http.StatusMethodNotAllowed, "method not allowed")
		resp.Header.Set("Allow", "GET, HEAD")
		return resp, nil
	}

	name := strings.TrimPrefix(path.Clean("/"+req.Path), "/")
	if name == "" {
		name = "."
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return Text(http.StatusNotFound, "not found"), nil
	}

	root, err := os.OpenRoot(h.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory: %w", err)
	}
	defer func() { _ = root.Close() }()

	info, err := root.Stat(name)
	if err != nil {
		return notFoundOr(err)
	}
	if info.IsDir() {
		name = path.Join(name, IndexFile)
	}

	data, err := root.ReadFile(name)
	if err != nil {
		return notFoundOr(err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   data,
	}, nil
}

// notFoundOr maps lookup failures on the requested name to 404, including
// os.Root rejecting a symlink that leaves the root, and permission errors to
// 403. Anything else reaches the adapter as a handler error.
func notFoundOr(err error) (*Response, error) {
	if errors.Is(err, fs.ErrPermission) {
		return Text(http.StatusForbidden, "forbidden"), nil
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return Text(http.StatusNotFound, "not found"), nil
	}
	return nil, err
}
