package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/ayusman/facekiosk/internal/recognition"
)

// GalleryHandler lists the known faces and serves their images.
type GalleryHandler struct {
	gallery *recognition.Gallery
}

// NewGalleryHandler creates a new GalleryHandler.
func NewGalleryHandler(g *recognition.Gallery) *GalleryHandler {
	return &GalleryHandler{gallery: g}
}

type galleryEntry struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type listGalleryResponse struct {
	Faces []galleryEntry `json:"faces"`
}

// ServeHTTP handles GET /api/gallery and GET /api/gallery/{name}/image.
func (h *GalleryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/gallery"), "/")
	if path == "" {
		h.list(w, r)
		return
	}

	name, ok := strings.CutSuffix(path, "/image")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	face, ok := h.gallery.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Face not found")
		return
	}
	http.ServeFile(w, r, face.ImagePath)
}

func (h *GalleryHandler) list(w http.ResponseWriter, r *http.Request) {
	faces := h.gallery.Faces()
	response := listGalleryResponse{
		Faces: make([]galleryEntry, 0, len(faces)),
	}
	for _, f := range faces {
		response.Faces = append(response.Faces, galleryEntry{
			Name:  f.Name,
			Image: "/api/gallery/" + url.PathEscape(f.Name) + "/image",
		})
	}

	writeJSON(w, http.StatusOK, response)
}
