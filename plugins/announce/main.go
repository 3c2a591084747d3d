// Package main provides an arrival hook that appends each arrival to a log
// file and can greet known people through the system speech command.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	VisitID   string          `json:"visit_id"`
	Name      string          `json:"name"`
	Known     bool            `json:"known"`
	Distance  float64         `json:"distance"`
	Timestamp time.Time       `json:"timestamp"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the plugin's manifest configuration.
type Config struct {
	LogFile string `json:"log_file"`
	Speak   bool   `json:"speak"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	cfg := Config{LogFile: "arrivals.log"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}
	if env := os.Getenv("FACEKIOSK_ANNOUNCE_LOG"); env != "" {
		cfg.LogFile = env
	}

	line := formatLine(req)
	if err := appendLine(cfg.LogFile, line); err != nil {
		writeErrorResponse(fmt.Sprintf("write log: %v", err))
		return
	}

	if cfg.Speak && req.Known {
		if err := speak("Welcome, " + req.Name); err != nil {
			writeErrorResponse(fmt.Sprintf("speak failed: %v", err))
			return
		}
	}

	data, _ := json.Marshal(map[string]string{"line": line})
	writeResponse(Response{Success: true, Data: data})
}

// formatLine renders one log line for the arrival.
func formatLine(req Request) string {
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	status := "known"
	if !req.Known {
		status = "unknown"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%.3f", ts.Format(time.RFC3339), req.Event, req.Name, status, req.Distance)
}

func appendLine(path, line string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintln(f, line)
	return err
}

// speak uses "say" on macOS and "espeak" elsewhere.
func speak(text string) error {
	name := "espeak"
	if runtime.GOOS == "darwin" {
		name = "say"
	}

	cmd := exec.Command(name, text)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	writeResponse(Response{
		Success: false,
		Error:   errMsg,
	})
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
