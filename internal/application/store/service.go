// Package store is the durable, channel-agnostic application-state
// store. Every mutation is a full read-merge-write of the whole
// form_data/metadata documents; partial writes would lose sibling
// fields written by the other channel.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

const (
	saveAttempts = 3
	retryBackoff = 150 * time.Millisecond
)

// Service implements the session store on top of the repositories.
type Service struct {
	sessions    session.Repository
	transitions session.TransitionRepository
	codes       session.ReferenceCodeRepository
	logger      zerolog.Logger
}

// NewService creates a session store service.
func NewService(
	sessions session.Repository,
	transitions session.TransitionRepository,
	codes session.ReferenceCodeRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		sessions:    sessions,
		transitions: transitions,
		codes:       codes,
		logger:      logger.With().Str("service", "store").Logger(),
	}
}

// SaveParams carries one full save. Data and Metadata are the complete
// desired documents; the store does not merge them with prior state.
type SaveParams struct {
	Channel        session.Channel
	UserIdentifier string
	Step           string
	Data           session.Document
	Metadata       session.Document
	// Trigger is the free-form payload recorded in the audit log.
	Trigger json.RawMessage
}

// Save upserts the session keyed by its channel-prefixed session id and
// appends one audit row. Invalid steps fall back to the initial step;
// string leaves are scrubbed before persistence.
func (s *Service) Save(ctx context.Context, p SaveParams) (*session.Session, error) {
	channel := p.Channel
	if !channel.Valid() {
		channel = session.ChannelAPI
	}
	userIdentifier := session.SanitizeIdentifier(p.UserIdentifier)
	if userIdentifier == "" {
		return nil, fmt.Errorf("user identifier is required")
	}
	step := session.ValidateStep(p.Step)
	sessionID := session.SessionIDFor(channel, userIdentifier)

	existing, err := s.getBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	fromStep := session.InitialStep
	if existing != nil {
		fromStep = existing.CurrentStep
	}

	now := time.Now().UTC()
	sess := &session.Session{
		SessionID:      sessionID,
		Channel:        channel,
		UserIdentifier: userIdentifier,
		CurrentStep:    step,
		FormData:       p.Data.Scrub(),
		Metadata:       p.Metadata.Scrub(),
		ExpiresAt:      now.Add(channel.TTL()),
	}
	if existing != nil {
		sess.ReferenceCode = existing.ReferenceCode
		sess.ReferenceCodeExpires = existing.ReferenceCodeExpires
	}
	s.applyReferenceCodeField(ctx, sess)

	transition := session.NewStateTransition(sessionID, fromStep, step, channel, p.Trigger)
	if err := s.persistWithTransition(ctx, "save session", sess, transition); err != nil {
		return nil, err
	}
	return sess, nil
}

// persistWithTransition writes the session with its audit row. The audit
// log is best-effort: a transition-only failure is logged and the save
// still succeeds.
func (s *Service) persistWithTransition(ctx context.Context, op string, sess *session.Session, t *session.StateTransition) error {
	return s.withRetry(ctx, op, func() error {
		err := s.sessions.UpsertWithTransition(ctx, sess, t)
		if errors.Is(err, session.ErrTransitionNotRecorded) {
			s.logger.Warn().Err(err).Str("sessionId", sess.SessionID).Msg("audit transition not recorded")
			return nil
		}
		return err
	})
}

// Retrieve returns the freshest live session for a user, optionally
// restricted to one channel. Returns nil when none exists.
func (s *Service) Retrieve(ctx context.Context, userIdentifier string, channel *session.Channel) (*session.Session, error) {
	id := session.SanitizeIdentifier(userIdentifier)
	if id == "" {
		return nil, nil
	}
	var sess *session.Session
	err := s.withRetry(ctx, "retrieve session", func() error {
		var err error
		sess, err = s.sessions.GetByUserIdentifier(ctx, id, channel)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sess != nil && sess.Expired(time.Now().UTC()) {
		return nil, nil
	}
	// Unknown persisted steps are coerced, never surfaced.
	if sess != nil && !session.KnownStep(sess.CurrentStep) {
		sess.CurrentStep = session.InitialStep
	}
	return sess, nil
}

// GetBySessionID returns a session by its identity key, nil when absent
// or expired.
func (s *Service) GetBySessionID(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.getBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess != nil && sess.Expired(time.Now().UTC()) {
		return nil, nil
	}
	if sess != nil && !session.KnownStep(sess.CurrentStep) {
		sess.CurrentStep = session.InitialStep
	}
	return sess, nil
}

func (s *Service) getBySessionID(ctx context.Context, sessionID string) (*session.Session, error) {
	var sess *session.Session
	err := s.withRetry(ctx, "get session", func() error {
		var err error
		sess, err = s.sessions.GetBySessionID(ctx, sessionID)
		return err
	})
	return sess, err
}

// Update rewrites an already-loaded session's documents and step whole,
// appending an audit row when a step transition or trigger is involved.
// Callers own the read-modify-write cycle.
func (s *Service) Update(ctx context.Context, sess *session.Session, trigger json.RawMessage) error {
	fromStep := sess.CurrentStep
	stored, err := s.getBySessionID(ctx, sess.SessionID)
	if err != nil {
		return err
	}
	if stored != nil {
		fromStep = stored.CurrentStep
	}
	if !session.KnownStep(sess.CurrentStep) {
		sess.CurrentStep = session.InitialStep
	}
	sess.FormData = sess.FormData.Scrub()
	sess.Metadata = sess.Metadata.Scrub()
	sess.ExpiresAt = time.Now().UTC().Add(sess.Channel.TTL())
	s.applyReferenceCodeField(ctx, sess)

	// Bookkeeping rewrites (no trigger, step unchanged) are not step
	// transitions and get no audit row.
	if trigger == nil && fromStep == sess.CurrentStep {
		return s.withRetry(ctx, "update session", func() error {
			return s.sessions.Upsert(ctx, sess)
		})
	}

	transition := session.NewStateTransition(sess.SessionID, fromStep, sess.CurrentStep, sess.Channel, trigger)
	return s.persistWithTransition(ctx, "update session", sess, transition)
}

// ListIdle returns live sessions on a channel untouched since
// idleBefore, for the idle-nudge sweep.
func (s *Service) ListIdle(ctx context.Context, channel session.Channel, idleBefore time.Time, limit int) ([]*session.Session, error) {
	return s.sessions.ListIdle(ctx, channel, idleBefore, limit)
}

// Expire sweeps expired sessions and reference codes. Invoked by an
// external scheduler; there is no background loop in the store itself.
func (s *Service) Expire(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	count, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	codes, err := s.codes.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to sweep expired reference codes")
		return count, nil
	}
	s.logger.Info().Int("sessions", count).Int("codes", codes).Msg("expiry sweep completed")
	return count, nil
}

// EnsureReferenceCode returns the session's active resume code, minting
// one when missing and extending one that is near expiry.
func (s *Service) EnsureReferenceCode(ctx context.Context, sess *session.Session) (string, error) {
	now := time.Now().UTC()
	existing, err := s.codes.GetBySessionID(ctx, sess.SessionID)
	if err != nil {
		return "", err
	}
	if existing != nil && !existing.Expired(now) {
		if existing.NearExpiry(now) {
			newExpiry := now.Add(session.CodeTTL)
			if err := s.codes.ExtendExpiry(ctx, existing.Code, newExpiry); err != nil {
				return "", err
			}
			existing.ExpiresAt = newExpiry
		}
		s.stampReferenceCode(ctx, sess, existing)
		return existing.Code, nil
	}

	code := &session.ReferenceCode{
		Code:      session.GenerateCode(),
		SessionID: sess.SessionID,
		ExpiresAt: now.Add(session.CodeTTL),
	}
	if err := s.codes.Upsert(ctx, code); err != nil {
		return "", err
	}
	s.stampReferenceCode(ctx, sess, code)
	return code.Code, nil
}

// ResolveReferenceCode maps a user-typed code to its live session.
// Returns nil when unknown or expired. Reuse inside the extension
// window pushes the expiry out rather than replacing the code.
func (s *Service) ResolveReferenceCode(ctx context.Context, rawCode string) (*session.Session, error) {
	code, err := s.codes.GetByCode(ctx, session.NormalizeCode(rawCode))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if code == nil || code.Expired(now) {
		return nil, nil
	}
	if code.NearExpiry(now) {
		if err := s.codes.ExtendExpiry(ctx, code.Code, now.Add(session.CodeTTL)); err != nil {
			s.logger.Warn().Err(err).Str("code", code.Code).Msg("failed to extend reference code")
		}
	}
	return s.GetBySessionID(ctx, code.SessionID)
}

// History returns the audit trail for a session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]*session.StateTransition, error) {
	return s.transitions.ListBySession(ctx, sessionID, limit)
}

// applyReferenceCodeField keeps the reference-code directory in step
// with a referenceCode field arriving in form_data.
func (s *Service) applyReferenceCodeField(ctx context.Context, sess *session.Session) {
	raw := sess.FormData.GetString("referenceCode", "")
	if raw == "" {
		return
	}
	code := session.NormalizeCode(raw)
	if sess.ReferenceCode != nil && *sess.ReferenceCode == code {
		return
	}
	now := time.Now().UTC()
	rc := &session.ReferenceCode{
		Code:      code,
		SessionID: sess.SessionID,
		ExpiresAt: now.Add(session.CodeTTL),
	}
	if err := s.codes.Upsert(ctx, rc); err != nil {
		s.logger.Warn().Err(err).Str("sessionId", sess.SessionID).Msg("failed to update reference code directory")
		return
	}
	s.stampReferenceCode(ctx, sess, rc)
}

func (s *Service) stampReferenceCode(_ context.Context, sess *session.Session, rc *session.ReferenceCode) {
	code := rc.Code
	expires := rc.ExpiresAt
	sess.ReferenceCode = &code
	sess.ReferenceCodeExpires = &expires
	if sess.FormData == nil {
		sess.FormData = session.Document{}
	}
	sess.FormData["referenceCode"] = code
}

// withRetry retries transient storage-connectivity failures a bounded
// number of times with a short fixed backoff, then fails loudly.
func (s *Service) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		s.logger.Warn().Err(err).Int("attempt", attempt).Str("op", op).Msg("transient storage error")
		if attempt == saveAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, saveAttempts, err)
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
