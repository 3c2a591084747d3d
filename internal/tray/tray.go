// Package tray provides a system tray menu for the kiosk.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu: a recognition toggle, the last arrival, a
// shortcut to the kiosk page and quit.
type Tray struct {
	title   string
	onOpen  func()
	onQuit  func()
	enabled bool
	last    string
	mu      sync.RWMutex

	onToggle func(enabled bool)

	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a Tray with the given title and initial recognition state.
func New(title string, enabled bool) *Tray {
	return &Tray{
		title:   title,
		enabled: enabled,
	}
}

// OnToggle sets the callback run when recognition is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback run when "Open kiosk" is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run when "Quit" is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until systray.Quit() is called and
// must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

func (t *Tray) onReady() {
	t.mu.Lock()
	systray.SetTitle(t.title)
	systray.SetTooltip(t.title)

	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle face recognition")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last arrival")
	t.menuLast.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuOpen := systray.AddMenuItem("Open kiosk", "Open the kiosk page in a browser")
	menuQuit := systray.AddMenuItem("Quit", "Quit "+t.title)

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastArrival shows the most recent arrival in the menu.
func (t *Tray) SetLastArrival(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = name
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(name))
	}
}

// LastArrival returns the name shown in the menu.
func (t *Tray) LastArrival() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current recognition state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Recognition: on"
	}
	return "○ Recognition: off"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}

// Quit stops the tray event loop, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}
