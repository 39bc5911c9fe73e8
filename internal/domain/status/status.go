// Package status defines the business-approval state machines for the two
// loan product lines. The approval status of an application is independent
// of its conversational step and lives inside the owning session's
// metadata document.
package status

import (
	"errors"
	"time"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// Line identifies a loan product line.
type Line string

const (
	// LineSSB covers salary-serviced loans.
	LineSSB Line = "ssb"
	// LineZB covers bank account products.
	LineZB Line = "zb"
)

// Status is one business-approval state of an application.
type Status string

// ErrInvalidTransition is returned when a requested status change is not
// in the current status's successor set.
var ErrInvalidTransition = errors.New("invalid status transition")

// Info carries the metadata statically attached to each status value.
type Info struct {
	Message        string
	Terminal       bool
	RequiresAction bool
	// ActionRequired describes what the applicant must decide, when
	// RequiresAction is set.
	ActionRequired string
	Successors     []Status
}

// Machine is the immutable allowed-transition graph for one product line.
type Machine struct {
	line    Line
	initial Status
	states  map[Status]Info
}

// NewMachine builds a transition graph. The graph is fixed at startup and
// never mutated afterwards.
func NewMachine(line Line, initial Status, states map[Status]Info) *Machine {
	return &Machine{line: line, initial: initial, states: states}
}

// Line returns the product line this machine governs.
func (m *Machine) Line() Line { return m.line }

// Initial returns the status assigned on submission.
func (m *Machine) Initial() Status { return m.initial }

// Known reports whether s is a declared status.
func (m *Machine) Known(s Status) bool {
	_, ok := m.states[s]
	return ok
}

// Info returns the metadata for a status.
func (m *Machine) Info(s Status) (Info, bool) {
	info, ok := m.states[s]
	return info, ok
}

// AllowedSuccessors returns the legal next statuses for s.
func (m *Machine) AllowedSuccessors(s Status) []Status {
	info, ok := m.states[s]
	if !ok {
		return nil
	}
	out := make([]Status, len(info.Successors))
	copy(out, info.Successors)
	return out
}

// CanTransition reports whether from→to is a declared edge.
func (m *Machine) CanTransition(from, to Status) bool {
	info, ok := m.states[from]
	if !ok {
		return false
	}
	for _, s := range info.Successors {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s ends the workflow. Terminal statuses have
// empty or compensating-only successor sets.
func (m *Machine) IsTerminal(s Status) bool {
	info, ok := m.states[s]
	return ok && info.Terminal
}

// StatusKey is the metadata field holding the current status pointer.
// These names are a compatibility surface read by external reporting.
func StatusKey(line Line) string { return string(line) + "_status" }

// HistoryKey is the metadata field holding the status history list.
func HistoryKey(line Line) string { return string(line) + "_status_history" }

// HistoryEntry is one appended status-history record. It is stored in
// metadata as a plain document so the persisted shape stays schemaless.
type HistoryEntry struct {
	Status    Status
	Message   string
	Notes     string
	Data      session.Document
	Timestamp time.Time
}

// ToDocument flattens the entry into the persisted metadata shape.
func (e HistoryEntry) ToDocument() session.Document {
	doc := session.Document{
		"status":    string(e.Status),
		"message":   e.Message,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
	}
	if e.Notes != "" {
		doc["notes"] = e.Notes
	}
	if e.Data != nil {
		doc["data"] = e.Data
	}
	return doc
}

// Details is the read model consumed by the status page and the chat
// layer.
type Details struct {
	Status         Status  `json:"status"`
	Message        string  `json:"message"`
	RequiresAction bool    `json:"requiresAction"`
	IsFinal        bool    `json:"isFinal"`
	ActionRequired *string `json:"actionRequired,omitempty"`
}

// DetailsFor builds the client-facing view of a status.
func (m *Machine) DetailsFor(s Status) (Details, bool) {
	info, ok := m.states[s]
	if !ok {
		return Details{}, false
	}
	d := Details{
		Status:         s,
		Message:        info.Message,
		RequiresAction: info.RequiresAction,
		IsFinal:        info.Terminal,
	}
	if info.RequiresAction && info.ActionRequired != "" {
		action := info.ActionRequired
		d.ActionRequired = &action
	}
	return d, true
}
