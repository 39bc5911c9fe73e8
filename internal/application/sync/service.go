// Package sync reconciles divergent copies of one logical application
// across channels. It is invoked explicitly on channel switch; it is not
// a general concurrency-safety layer.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/intake-hub/intake-hub/internal/application/store"
	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// Service is the cross-platform synchronizer.
type Service struct {
	store  *store.Service
	logger zerolog.Logger
}

// NewService creates a synchronizer.
func NewService(store *store.Service, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("service", "sync").Logger(),
	}
}

// MergedResult reports the outcome of a merge or channel switch.
type MergedResult struct {
	// Session is the session for the channel the user is switching to
	// (or the primary, for a plain synchronize).
	Session *session.Session
	// PrimaryID is the session selected as authoritative.
	PrimaryID   string
	SecondaryID string
	Conflicts   []FieldConflict
	// ReferenceCode lets the user switch back.
	ReferenceCode string
}

// Synchronize merges two sessions for the same person and writes the
// merged documents back to both. The two writes are sequential; each
// row's own write is atomic.
func (s *Service) Synchronize(ctx context.Context, sessionIDA, sessionIDB string) (*MergedResult, error) {
	a, err := s.store.GetBySessionID(ctx, sessionIDA)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetBySessionID(ctx, sessionIDB)
	if err != nil {
		return nil, err
	}
	switch {
	case a == nil && b == nil:
		return nil, fmt.Errorf("no session found for %q or %q", sessionIDA, sessionIDB)
	case b == nil:
		return &MergedResult{Session: a, PrimaryID: a.SessionID}, nil
	case a == nil:
		return &MergedResult{Session: b, PrimaryID: b.SessionID}, nil
	}

	primary, secondary := selectPrimary(a, b)
	conflicts := ValidateDataConsistency(secondary.FormData, primary.FormData, secondary.UpdatedAt, primary.UpdatedAt)

	mergedForm := mergeFormData(primary.FormData, secondary.FormData)
	mergedMeta := mergeMetadata(primary, secondary)

	trigger, _ := json.Marshal(map[string]any{
		"action":    "cross_platform_sync",
		"primary":   primary.SessionID,
		"secondary": secondary.SessionID,
	})
	for _, sess := range []*session.Session{primary, secondary} {
		sess.FormData = mergedForm.Clone()
		sess.Metadata = mergedMeta.Clone()
		sess.CurrentStep = primary.CurrentStep
		if err := s.store.Update(ctx, sess, trigger); err != nil {
			return nil, fmt.Errorf("failed to write merged session %s: %w", sess.SessionID, err)
		}
	}

	s.logger.Info().
		Str("primary", primary.SessionID).
		Str("secondary", secondary.SessionID).
		Int("conflicts", len(conflicts)).
		Msg("sessions synchronized")

	return &MergedResult{
		Session:     primary,
		PrimaryID:   primary.SessionID,
		SecondaryID: secondary.SessionID,
		Conflicts:   conflicts,
	}, nil
}

// SwitchToWhatsApp continues a web application on WhatsApp.
func (s *Service) SwitchToWhatsApp(ctx context.Context, sourceSessionID, phone string) (*MergedResult, error) {
	return s.switchChannel(ctx, sourceSessionID, session.ChannelWhatsApp, phone)
}

// SwitchToWeb continues a chat application on the web form.
func (s *Service) SwitchToWeb(ctx context.Context, sourceSessionID, webIdentity string) (*MergedResult, error) {
	return s.switchChannel(ctx, sourceSessionID, session.ChannelWeb, webIdentity)
}

func (s *Service) switchChannel(ctx context.Context, sourceSessionID string, target session.Channel, identity string) (*MergedResult, error) {
	source, err := s.store.GetBySessionID(ctx, sourceSessionID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("source session not found: %s", sourceSessionID)
	}
	identity = session.SanitizeIdentifier(identity)
	if identity == "" {
		return nil, fmt.Errorf("target identity is required")
	}
	targetID := session.SessionIDFor(target, identity)

	existing, err := s.store.GetBySessionID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	var result *MergedResult
	if existing != nil {
		result, err = s.Synchronize(ctx, source.SessionID, existing.SessionID)
		if err != nil {
			return nil, err
		}
		// The caller continues on the target channel regardless of which
		// side won the merge.
		targetSess, err := s.store.GetBySessionID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		result.Session = targetSess
	} else {
		sess := &session.Session{
			SessionID:      targetID,
			Channel:        target,
			UserIdentifier: identity,
			CurrentStep:    source.CurrentStep,
			FormData:       NormalizeForChannel(source.FormData, target),
			Metadata:       stampSwitch(source.Metadata.Clone(), source),
		}
		trigger, _ := json.Marshal(map[string]any{
			"action": "channel_switch",
			"source": source.SessionID,
		})
		if err := s.store.Update(ctx, sess, trigger); err != nil {
			return nil, err
		}
		result = &MergedResult{
			Session:     sess,
			PrimaryID:   source.SessionID,
			SecondaryID: targetID,
		}
	}

	code, err := s.store.EnsureReferenceCode(ctx, result.Session)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, result.Session, nil); err != nil {
		return nil, err
	}
	result.ReferenceCode = code
	return result, nil
}

// selectPrimary picks the authoritative side: more populated form data
// wins; on a tie the more recently updated session wins.
func selectPrimary(a, b *session.Session) (primary, secondary *session.Session) {
	ca, cb := a.FormData.FieldCount(), b.FormData.FieldCount()
	if ca > cb {
		return a, b
	}
	if cb > ca {
		return b, a
	}
	if a.UpdatedAt.After(b.UpdatedAt) {
		return a, b
	}
	return b, a
}

// mergeFormData is a shallow union with primary's keys overriding
// secondary's on conflict.
func mergeFormData(primary, secondary session.Document) session.Document {
	out := secondary.Clone()
	if out == nil {
		out = session.Document{}
	}
	for k, v := range primary.Clone() {
		out[k] = v
	}
	return out
}

// mergeMetadata unions both sides and stamps the sync bookkeeping
// fields. The field names are a compatibility surface.
func mergeMetadata(primary, secondary *session.Session) session.Document {
	out := secondary.Metadata.Clone()
	if out == nil {
		out = session.Document{}
	}
	for k, v := range primary.Metadata.Clone() {
		out[k] = v
	}
	out["last_sync"] = time.Now().UTC().Format(time.RFC3339)
	out["sync_source"] = string(primary.Channel)
	out["merged_from"] = secondary.SessionID
	return out
}

func stampSwitch(meta session.Document, source *session.Session) session.Document {
	if meta == nil {
		meta = session.Document{}
	}
	meta["last_sync"] = time.Now().UTC().Format(time.RFC3339)
	meta["sync_source"] = string(source.Channel)
	meta["merged_from"] = source.SessionID
	return meta
}
