package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/facekiosk/internal/people"
)

// PeopleHandler serves person records from the info file.
type PeopleHandler struct {
	directory *people.Directory
}

// NewPeopleHandler creates a new PeopleHandler.
func NewPeopleHandler(d *people.Directory) *PeopleHandler {
	return &PeopleHandler{directory: d}
}

type listPeopleResponse struct {
	People []people.Person `json:"people"`
}

// ServeHTTP handles GET /api/people and GET /api/people/{name}.
func (h *PeopleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/people"), "/")
	if name == "" {
		if err := h.directory.Err(); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load people")
			return
		}
		all := h.directory.All()
		if all == nil {
			all = []people.Person{}
		}
		writeJSON(w, http.StatusOK, listPeopleResponse{People: all})
		return
	}

	p, ok := h.directory.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Person not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
