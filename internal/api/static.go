package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/haesinais/aisdash/pkg/logger"
)

// StaticFileHandler serves the browser dashboard without caching. Paths
// without a file extension that match no file fall back to index.html so
// client-side routes such as /home load the app.
type StaticFileHandler struct {
	staticDir string
	logger    *logger.Logger
}

// NewStaticFileHandler creates a new static file handler
func NewStaticFileHandler(staticDir string, loggerObj *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		staticDir: staticDir,
		logger:    loggerObj.Named("static-handler"),
	}
}

// ServeHTTP serves static files dynamically
func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	absStaticDir, err := filepath.Abs(h.staticDir)
	if err != nil {
		h.logger.Error("Failed to get absolute path for static directory", logger.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Clean the path to prevent directory traversal attacks
	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	fullPath := filepath.Join(absStaticDir, filepath.FromSlash(rel))

	if fullPath != absStaticDir && !strings.HasPrefix(fullPath, absStaticDir+string(filepath.Separator)) {
		h.logger.Warn("Attempted directory traversal attack",
			logger.String("requested_path", r.URL.Path),
			logger.String("static_dir", absStaticDir))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	resolved, ok := h.resolve(fullPath, rel)
	if !ok {
		h.logger.Debug("File not found", logger.String("path", fullPath))
		http.NotFound(w, r)
		return
	}

	// Set headers to prevent caching (for dynamic serving)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	h.logger.Debug("Serving static file",
		logger.String("requested_path", r.URL.Path),
		logger.String("file_path", resolved))

	http.ServeFile(w, r, resolved)
}

// resolve maps a request path to a file: the file itself, a directory's
// index.html, or the root index.html for extensionless app routes
func (h *StaticFileHandler) resolve(fullPath, rel string) (string, bool) {
	if info, err := os.Stat(fullPath); err == nil {
		if !info.IsDir() {
			return fullPath, true
		}
		index := filepath.Join(fullPath, "index.html")
		if _, err := os.Stat(index); err == nil {
			return index, true
		}
		return "", false
	}

	if path.Ext(rel) != "" {
		return "", false
	}
	index := filepath.Join(h.staticDir, "index.html")
	if _, err := os.Stat(index); err == nil {
		return index, true
	}
	return "", false
}
