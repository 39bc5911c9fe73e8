// Package workflowadmin moves an application between administrative
// outcomes: approve, reject, request documents. A successful status
// change is authoritative; its one-time side effects (contract PDF,
// commission computation) run behind their own error boundaries and are
// guarded so they fire exactly once per application.
package workflowadmin

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	statusapp "github.com/intake-hub/intake-hub/internal/application/status"
	"github.com/intake-hub/intake-hub/internal/application/store"
	"github.com/intake-hub/intake-hub/internal/domain/session"
	"github.com/intake-hub/intake-hub/internal/domain/status"
)

// PDFGenerator queues contract document rendering. The rendering itself
// is an external collaborator.
type PDFGenerator interface {
	QueueContract(ctx context.Context, sessionID string, formData session.Document) error
}

// NopPDFGenerator discards render requests.
type NopPDFGenerator struct{}

func (NopPDFGenerator) QueueContract(context.Context, string, session.Document) error { return nil }

// Service orchestrates the administrative workflow actions.
type Service struct {
	store      *store.Service
	statusSvc  *statusapp.Service
	pdf        PDFGenerator
	commission *CommissionCalculator
	logger     zerolog.Logger
}

// NewService creates the admin workflow orchestrator.
func NewService(
	store *store.Service,
	statusSvc *statusapp.Service,
	pdf PDFGenerator,
	commission *CommissionCalculator,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:      store,
		statusSvc:  statusSvc,
		pdf:        pdf,
		commission: commission,
		logger:     logger.With().Str("service", "workflowadmin").Logger(),
	}
}

// Approve moves an application into approved-awaiting-delivery and
// fires the one-time approval side effects.
func (s *Service) Approve(ctx context.Context, sessionID, notes string) (*session.Session, error) {
	sess, m, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var target status.Status
	switch m.Line() {
	case status.LineSSB:
		target = status.SSBApprovedAwaitingDelivery
	default:
		target = status.ZBApprovedAwaitingDelivery
	}
	ok, err := s.statusSvc.UpdateStatus(ctx, sess, m, target, notes, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, status.ErrInvalidTransition
	}
	s.fireApprovalEffects(ctx, sess)
	return sess, nil
}

// Reject declines an application.
func (s *Service) Reject(ctx context.Context, sessionID, notes string) (*session.Session, error) {
	sess, m, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var target status.Status
	switch m.Line() {
	case status.LineSSB:
		target = status.SSBRejected
	default:
		target = status.ZBRejected
	}
	ok, err := s.statusSvc.UpdateStatus(ctx, sess, m, target, notes, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, status.ErrInvalidTransition
	}
	return sess, nil
}

// RequestDocuments asks the applicant for additional documents.
func (s *Service) RequestDocuments(ctx context.Context, sessionID, notes string) (*session.Session, error) {
	sess, m, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var target status.Status
	switch m.Line() {
	case status.LineSSB:
		target = status.SSBDocumentsRequested
	default:
		target = status.ZBDocumentsRequested
	}
	ok, err := s.statusSvc.UpdateStatus(ctx, sess, m, target, notes, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, status.ErrInvalidTransition
	}
	return sess, nil
}

// Transition applies a raw status change on either line, for back-office
// screens that drive the machine directly.
func (s *Service) Transition(ctx context.Context, sessionID string, to status.Status, notes string, data session.Document) (*session.Session, error) {
	sess, m, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ok, err := s.statusSvc.UpdateStatus(ctx, sess, m, to, notes, data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, status.ErrInvalidTransition
	}
	return sess, nil
}

// fireApprovalEffects runs the one-time approval side effects. Each is
// guarded by a metadata flag written with the session, so a repeated
// approve call cannot double-fire; each failure is logged for manual
// follow-up and never unwinds the approval.
func (s *Service) fireApprovalEffects(ctx context.Context, sess *session.Session) {
	changed := false

	if !sess.Metadata.GetBool("contract_pdf_queued", false) {
		if err := s.pdf.QueueContract(ctx, sess.SessionID, sess.FormData); err != nil {
			s.logger.Error().Err(err).Str("sessionId", sess.SessionID).Msg("contract pdf queue failed")
		} else {
			sess.Metadata["contract_pdf_queued"] = true
			changed = true
		}
	}

	if _, done := sess.Metadata["agent_commission"]; !done {
		amount, err := s.commission.Compute(sess.FormData)
		if err != nil {
			s.logger.Error().Err(err).Str("sessionId", sess.SessionID).Msg("commission computation failed")
		} else {
			sess.Metadata["agent_commission"] = amount
			sess.Metadata["agent_commission_at"] = time.Now().UTC().Format(time.RFC3339)
			changed = true
		}
	}

	if changed {
		if err := s.store.Update(ctx, sess, nil); err != nil {
			s.logger.Warn().Err(err).Str("sessionId", sess.SessionID).Msg("failed to persist approval side effects")
		}
	}
}

func (s *Service) load(ctx context.Context, sessionID string) (*session.Session, *status.Machine, error) {
	sess, err := s.store.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, fmt.Errorf("session not found: %s", sessionID)
	}
	for _, m := range []*status.Machine{status.SSB, status.ZB} {
		if _, ok := m.CurrentIn(sess.Metadata); ok {
			return sess, m, nil
		}
	}
	return nil, nil, fmt.Errorf("session %s has no workflow status", sessionID)
}
