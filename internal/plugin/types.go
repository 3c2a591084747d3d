// Package plugin discovers and runs arrival hooks. A hook is an executable
// that receives a JSON Request on stdin and answers with a JSON Response.
package plugin

import (
	"encoding/json"
	"time"
)

// Events a hook can subscribe to.
const (
	// EventArrival fires when a new identity appears in front of the kiosk.
	EventArrival = "arrival"
	// EventUnknown fires on arrivals that did not match the gallery.
	EventUnknown = "unknown"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Person is the record sent along with a known arrival.
type Person struct {
	Gender         string `json:"gender,omitempty"`
	StudentID      string `json:"student_id,omitempty"`
	College        string `json:"college,omitempty"`
	PersonType     string `json:"person_type,omitempty"`
	EnrollmentTime string `json:"enrollment_time,omitempty"`
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Event     string          `json:"event"`
	VisitID   string          `json:"visit_id,omitempty"`
	Name      string          `json:"name"`
	Known     bool            `json:"known"`
	Distance  float64         `json:"distance"`
	Person    *Person         `json:"person,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribed to event. A manifest without
// events receives arrivals only.
func (p *Plugin) Handles(event string) bool {
	if len(p.Manifest.Events) == 0 {
		return event == EventArrival
	}
	for _, e := range p.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
