package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"huddle/internal/storage"
)

// UploadHandler is the out-of-band gateway for message attachments. It is a
// plain request/response exchange with no ties to the websocket protocol:
// store bytes under a name, hand back a retrievable path. Names are caller
// supplied and not deduplicated; uploading the same name again overwrites
// the previous bytes.
type UploadHandler struct {
	dir      string
	maxBytes int64
	store    *storage.Store
	metrics  *Metrics
}

func NewUploadHandler(dir string, maxBytes int64, store *storage.Store, metrics *Metrics) *UploadHandler {
	return &UploadHandler{
		dir:      dir,
		maxBytes: maxBytes,
		store:    store,
		metrics:  metrics,
	}
}

// HandleUpload accepts a multipart POST carrying exactly one recognized file
// field and responds with the bare retrieval path as plain text, which is
// what the chat client embeds as the message attachment.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		http.Error(w, "No files were uploaded.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		http.Error(w, fmt.Sprintf("create upload directory: %v", err), http.StatusInternalServerError)
		return
	}

	// os.Create truncates, so a repeated name silently replaces the old
	// bytes. Last write wins.
	destPath := filepath.Join(h.dir, name)
	dest, err := os.Create(destPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("create file: %v", err), http.StatusInternalServerError)
		return
	}
	defer dest.Close()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(dest, hasher), file)
	if err != nil {
		os.Remove(destPath)
		http.Error(w, fmt.Sprintf("save file: %v", err), http.StatusInternalServerError)
		return
	}

	if h.store != nil {
		asset := storage.Asset{
			Name:       name,
			SizeBytes:  written,
			SHA256:     hex.EncodeToString(hasher.Sum(nil)),
			UploadedAt: time.Now().UTC(),
		}
		// the index is advisory; the blob on disk is the source of truth,
		// so an index failure does not fail the upload.
		if err := h.store.RecordAsset(r.Context(), asset); err != nil {
			log.Printf("record asset %q: %v", name, err)
		}
	}

	if h.metrics != nil {
		h.metrics.IncUpload()
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s/%s", uploadURLPrefix, name)
}

// StaticHandler serves previously stored blobs under /uploads/.
func (h *UploadHandler) StaticHandler() http.Handler {
	return http.StripPrefix(uploadURLPrefix+"/", http.FileServer(http.Dir(h.dir)))
}

const (
	// uploadFieldName matches the form field the web and TUI clients send.
	uploadFieldName = "uploadedImage"
	uploadURLPrefix = "/uploads"
)
