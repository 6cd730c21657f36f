package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Overlay collects recent alert triggers for rendering inside a live
// watch table without disturbing its redraw cycle.
type Overlay struct {
	events     []AlertEvent
	maxVisible int
	ttl        time.Duration
	mu         sync.RWMutex
}

// NewOverlay creates an overlay keeping at most maxVisible events, each
// visible for ttl.
func NewOverlay(maxVisible int, ttl time.Duration) *Overlay {
	if maxVisible <= 0 {
		maxVisible = 5
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Overlay{
		events:     make([]AlertEvent, 0, maxVisible),
		maxVisible: maxVisible,
		ttl:        ttl,
	}
}

// Add adds an alert event to the overlay.
func (o *Overlay) Add(event AlertEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	active := o.events[:0]
	for _, ev := range o.events {
		if now.Sub(ev.Timestamp) < o.ttl {
			active = append(active, ev)
		}
	}
	o.events = append(active, event)

	if len(o.events) > o.maxVisible {
		o.events = o.events[len(o.events)-o.maxVisible:]
	}
}

// Visible returns the events that have not expired yet.
func (o *Overlay) Visible() []AlertEvent {
	o.mu.RLock()
	defer o.mu.RUnlock()

	now := time.Now()
	visible := make([]AlertEvent, 0, len(o.events))
	for _, ev := range o.events {
		if now.Sub(ev.Timestamp) < o.ttl {
			visible = append(visible, ev)
		}
	}
	return visible
}

// Clear removes all events.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = o.events[:0]
}

// Render renders the visible events as a boxed panel. Color is applied
// around the padded line so column alignment survives the ANSI codes.
func (o *Overlay) Render(colorEnabled bool) string {
	visible := o.Visible()
	if len(visible) == 0 {
		return ""
	}

	var color, reset string
	if colorEnabled {
		color = "\033[33m"
		reset = "\033[0m"
	}

	var sb strings.Builder
	sb.WriteString("┌─ Alerts ")
	sb.WriteString(strings.Repeat("─", 66))
	sb.WriteString("┐\n")

	for _, ev := range visible {
		line := FormatAlertLine(ev, false)
		if len(line) > 73 {
			line = line[:70] + "..."
		}
		sb.WriteString(fmt.Sprintf("│ %s%-73s%s │\n", color, line, reset))
	}

	sb.WriteString("└")
	sb.WriteString(strings.Repeat("─", 75))
	sb.WriteString("┘")
	return sb.String()
}
