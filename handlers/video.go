package handlers

import (
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// VideoHandler serves library media files with full range-request support
// via http.ServeContent. The library root is an afero filesystem so tests
// run against an in-memory tree.
type VideoHandler struct {
	fs afero.Fs
}

// NewVideoHandler serves files from the given library filesystem. Callers
// typically pass afero.NewBasePathFs(afero.NewOsFs(), libraryDir).
func NewVideoHandler(fs afero.Fs) *VideoHandler {
	return &VideoHandler{fs: fs}
}

// Stream serves the file named by the path query parameter. The path is
// interpreted relative to the library root; anything escaping it is
// rejected.
func (h *VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("path"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}

	clean, ok := sanitizeLibraryPath(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid media path")
		return
	}

	info, err := h.fs.Stat(clean)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "media file not found")
		return
	}

	f, err := h.fs.Open(clean)
	if err != nil {
		writeError(w, http.StatusNotFound, "media file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", sniffContentType(f, clean))
	w.Header().Set("Accept-Ranges", "bytes")
	http.ServeContent(w, r, filepath.Base(clean), info.ModTime(), f)
}

// sanitizeLibraryPath normalizes a requested library path and rejects any
// form that could escape the library root.
func sanitizeLibraryPath(raw string) (string, bool) {
	normalized := strings.ReplaceAll(raw, "\\", "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", false
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+normalized), "/")
	if clean == "" || clean == "." {
		return "", false
	}
	return clean, true
}

// sniffContentType detects the media type from the file's magic bytes,
// falling back to the extension. The reader is rewound afterwards.
func sniffContentType(f io.ReadSeeker, name string) string {
	if mt, err := mimetype.DetectReader(f); err == nil {
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr == nil {
			return mt.String()
		}
	}
	_, _ = f.Seek(0, io.SeekStart)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}
