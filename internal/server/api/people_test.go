package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/facekiosk/internal/people"
	"github.com/ayusman/facekiosk/internal/recognition"
)

func TestPeopleHandler(t *testing.T) {
	dir := people.NewDirectoryFromRecords([]people.Person{
		{Name: "bob", College: "Science"},
		{Name: "alice", College: "Engineering"},
	})
	handler := NewPeopleHandler(dir)

	t.Run("list is sorted by name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/people", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var resp listPeopleResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.People) != 2 || resp.People[0].Name != "alice" {
			t.Errorf("people = %+v", resp.People)
		}
	})

	t.Run("single record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/people/bob", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var p people.Person
		if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if p.College != "Science" {
			t.Errorf("College = %s, want Science", p.College)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/people/carol", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestGalleryHandler(t *testing.T) {
	imgDir := t.TempDir()
	alicePath := filepath.Join(imgDir, "alice.jpg")
	if err := os.WriteFile(alicePath, []byte("jpeg-bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	gallery := recognition.NewGallery([]recognition.KnownFace{
		{Name: "alice", ImagePath: alicePath},
		{Name: "bob", ImagePath: filepath.Join(imgDir, "bob.jpg")},
	})
	handler := NewGalleryHandler(gallery)

	t.Run("lists faces with image links", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var resp listGalleryResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Faces) != 2 {
			t.Fatalf("expected 2 faces, got %d", len(resp.Faces))
		}
		if resp.Faces[0].Image != "/api/gallery/alice/image" {
			t.Errorf("Image = %s", resp.Faces[0].Image)
		}
	})

	t.Run("serves image", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/gallery/alice/image", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK || rec.Body.String() != "jpeg-bytes" {
			t.Errorf("status %d body %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown face", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/gallery/zed/image", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("only allows GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/gallery", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}
