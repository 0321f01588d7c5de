package routes

import "sync"

// Visit is one entry in the navigation history
type Visit struct {
	Path string
	From string
}

// Navigator tracks the current location. It is safe for concurrent use:
// the API transport may redirect while a view is running.
type Navigator struct {
	mu      sync.Mutex
	current Visit
	history []Visit
	notify  []func(Visit)
}

// NewNavigator starts at the given location
func NewNavigator(start string) *Navigator {
	v := Visit{Path: Resolve(start).Path}
	return &Navigator{current: v, history: []Visit{v}}
}

// Location returns the current path
func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current.Path
}

// Current returns the current visit including the location it came from
func (n *Navigator) Current() Visit {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate moves to a path. Unknown paths land on Home.
func (n *Navigator) Navigate(to string) {
	n.NavigateFrom(to, "")
}

// NavigateFrom moves to a path remembering the location that was requested
// before the redirect.
func (n *Navigator) NavigateFrom(to, from string) {
	v := Visit{Path: Resolve(to).Path, From: from}

	n.mu.Lock()
	n.current = v
	n.history = append(n.history, v)
	notify := append([]func(Visit){}, n.notify...)
	n.mu.Unlock()

	for _, fn := range notify {
		fn(v)
	}
}

// Subscribe registers fn to run after every navigation
func (n *Navigator) Subscribe(fn func(Visit)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notify = append(n.notify, fn)
}

// History returns every visit in order
func (n *Navigator) History() []Visit {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Visit, len(n.history))
	copy(out, n.history)
	return out
}
