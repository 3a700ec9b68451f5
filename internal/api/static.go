package api

import (
	_ "embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/api/common"
)

const indexFile = "index.html"

//go:embed static/index.html
var defaultIndex []byte

// pluginFileServer serves files from plugin checkouts. Git metadata, staging
// clones and directory listings are never exposed.
func pluginFileServer(dir string) http.Handler {
	return http.FileServer(pluginFS{root: http.Dir(dir)})
}

type pluginFS struct {
	root http.FileSystem
}

func (p pluginFS) Open(name string) (http.File, error) {
	for _, segment := range strings.Split(path.Clean("/"+name), "/") {
		if isHiddenSegment(segment) {
			return nil, fs.ErrNotExist
		}
	}

	f, err := p.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		// Only directories with an index page are served
		index, err := p.root.Open(path.Join(name, indexFile))
		if err != nil {
			_ = f.Close()
			return nil, fs.ErrNotExist
		}
		_ = index.Close()
	}
	return f, nil
}

func isHiddenSegment(segment string) bool {
	return segment == ".git" || strings.HasPrefix(segment, ".staging-")
}

// uiHandler serves the browsable UI from publicDir, falling back to the
// embedded page for the index
type uiHandler struct {
	publicDir string
	files     http.Handler
}

func newUIHandler(publicDir string) *uiHandler {
	h := &uiHandler{publicDir: publicDir}
	if publicDir != "" {
		h.files = http.FileServer(http.Dir(publicDir))
	}
	return h
}

func (h *uiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		common.WriteErrorResponse(w, "Not found", http.StatusNotFound)
		return
	}

	if r.URL.Path == "/" || r.URL.Path == "/"+indexFile {
		h.serveIndex(w, r)
		return
	}

	if h.files == nil || !h.exists(r.URL.Path) {
		common.WriteErrorResponse(w, "Not found", http.StatusNotFound)
		return
	}
	h.files.ServeHTTP(w, r)
}

func (h *uiHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	if h.publicDir != "" {
		index := filepath.Join(h.publicDir, indexFile)
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(defaultIndex)
	}
}

// exists reports whether urlPath names a file inside publicDir
func (h *uiHandler) exists(urlPath string) bool {
	_, err := fs.Stat(os.DirFS(h.publicDir), strings.TrimPrefix(path.Clean(urlPath), "/"))
	return err == nil
}
