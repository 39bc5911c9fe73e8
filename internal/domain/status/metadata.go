package status

import (
	"time"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// CurrentIn reads the current status pointer for this line out of a
// session's metadata document.
func (m *Machine) CurrentIn(meta session.Document) (Status, bool) {
	raw := meta.GetString(StatusKey(m.line), "")
	if raw == "" {
		return "", false
	}
	s := Status(raw)
	if !m.Known(s) {
		return "", false
	}
	return s, true
}

// InitializeIn stamps the submission status and its first history entry
// into metadata. No-op when a status already exists.
func (m *Machine) InitializeIn(meta session.Document) session.Document {
	if meta == nil {
		meta = session.Document{}
	}
	if _, ok := m.CurrentIn(meta); ok {
		return meta
	}
	info := m.states[m.initial]
	return m.appendIn(meta, HistoryEntry{
		Status:    m.initial,
		Message:   info.Message,
		Timestamp: time.Now().UTC(),
	})
}

// ApplyIn validates and applies a transition: the history entry is
// appended and the current-status pointer replaced, all inside the
// metadata document. Returns ErrInvalidTransition when the target is
// not in the current status's successor set.
func (m *Machine) ApplyIn(meta session.Document, entry HistoryEntry) (session.Document, error) {
	if meta == nil {
		meta = session.Document{}
	}
	current, ok := m.CurrentIn(meta)
	if !ok {
		return meta, ErrInvalidTransition
	}
	if !m.Known(entry.Status) || !m.CanTransition(current, entry.Status) {
		return meta, ErrInvalidTransition
	}
	if entry.Message == "" {
		entry.Message = m.states[entry.Status].Message
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return m.appendIn(meta, entry), nil
}

func (m *Machine) appendIn(meta session.Document, entry HistoryEntry) session.Document {
	history := meta.GetSlice(HistoryKey(m.line))
	history = append(history, map[string]any(entry.ToDocument()))
	meta[HistoryKey(m.line)] = history
	meta[StatusKey(m.line)] = string(entry.Status)
	return meta
}

// HistoryIn returns the decoded history entries for this line.
func (m *Machine) HistoryIn(meta session.Document) []session.Document {
	raw := meta.GetSlice(HistoryKey(m.line))
	out := make([]session.Document, 0, len(raw))
	for _, e := range raw {
		switch t := e.(type) {
		case session.Document:
			out = append(out, t)
		case map[string]any:
			out = append(out, session.Document(t))
		}
	}
	return out
}
