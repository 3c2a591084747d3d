package plugin

import (
	"context"
	"errors"
	"sync"

	"github.com/ayusman/facekiosk/internal/logging"
)

// Result is the outcome of running one plugin for an event.
type Result struct {
	Plugin   string
	Response *Response
	Err      error
}

// OK reports whether the plugin ran and reported success.
func (r Result) OK() bool {
	return r.Err == nil && r.Response != nil && r.Response.Success
}

// ErrorText returns the failure reason, or "" on success.
func (r Result) ErrorText() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.Response == nil:
		return "no response"
	case !r.Response.Success:
		if r.Response.Error != "" {
			return r.Response.Error
		}
		return "plugin reported failure"
	}
	return ""
}

// Dispatcher runs every plugin subscribed to an event.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(manager *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{manager: manager, executor: executor}
}

// Dispatch runs the plugins for req.Event concurrently and returns their
// results in plugin name order. Failures are logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) []Result {
	plugins := d.manager.ForEvent(req.Event)
	if len(plugins) == 0 {
		return nil
	}

	log := logging.Component("plugin")
	results := make([]Result, len(plugins))

	var wg sync.WaitGroup
	for i, p := range plugins {
		wg.Add(1)
		go func(i int, p *Plugin) {
			defer wg.Done()

			resp, err := d.executor.ExecuteContext(ctx, p, req)
			results[i] = Result{Plugin: p.Manifest.Name, Response: resp, Err: err}

			if !results[i].OK() {
				log.WithField("plugin", p.Manifest.Name).
					WithError(errors.New(results[i].ErrorText())).
					Warnf("Hook failed for %s", req.Name)
			}
		}(i, p)
	}
	wg.Wait()

	return results
}
