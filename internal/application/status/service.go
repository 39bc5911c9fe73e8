// Package status applies business-approval transitions to applications
// and fires their side effects. The current status and its history live
// inside the owning session's metadata document and are mutated only
// through the transition function here, never by direct assignment.
package status

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/intake-hub/intake-hub/internal/application/store"
	"github.com/intake-hub/intake-hub/internal/domain/session"
	"github.com/intake-hub/intake-hub/internal/domain/status"
)

// Service drives the workflow status state machines.
type Service struct {
	store    *store.Service
	notifier Notifier
	delivery DeliveryService
	payments PaymentInitiator
	logger   zerolog.Logger
}

// NewService creates a workflow status service.
func NewService(
	store *store.Service,
	notifier Notifier,
	delivery DeliveryService,
	payments PaymentInitiator,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		delivery: delivery,
		payments: payments,
		logger:   logger.With().Str("service", "status").Logger(),
	}
}

// UpdateStatus attempts one transition. Illegal transitions return
// (false, nil) with a warning log, leaving the stored status unchanged;
// the caller decides what to do next. On success the history entry is
// appended, the session persisted, and the transition's side effects
// fired, each inside its own error boundary, so a side-effect failure
// never rolls back the status change.
func (s *Service) UpdateStatus(ctx context.Context, sess *session.Session, m *status.Machine, to status.Status, notes string, data session.Document) (bool, error) {
	current, ok := m.CurrentIn(sess.Metadata)
	if !ok {
		s.logger.Warn().
			Str("sessionId", sess.SessionID).
			Str("line", string(m.Line())).
			Msg("no current status for session")
		return false, nil
	}
	if !m.CanTransition(current, to) {
		s.logger.Warn().
			Str("sessionId", sess.SessionID).
			Str("from", string(current)).
			Str("to", string(to)).
			Msg("illegal status transition refused")
		return false, nil
	}

	meta, err := m.ApplyIn(sess.Metadata, status.HistoryEntry{
		Status:    to,
		Notes:     notes,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return false, nil
	}
	sess.Metadata = meta
	s.prepareSideEffects(sess, m, to)

	trigger, _ := json.Marshal(map[string]string{
		"action": "status_transition",
		"line":   string(m.Line()),
		"from":   string(current),
		"to":     string(to),
	})
	if err := s.store.Update(ctx, sess, trigger); err != nil {
		return false, err
	}

	s.fireSideEffects(ctx, sess, m, to)
	return true, nil
}

// prepareSideEffects stamps once-only guard flags and the notification
// log into metadata before the authoritative write, so replays of the
// same transition cannot double-fire.
func (s *Service) prepareSideEffects(sess *session.Session, m *status.Machine, to status.Status) {
	info, _ := m.Info(to)
	notifications := sess.Metadata.GetSlice("notifications")
	notifications = append(notifications, map[string]any{
		"type":      "sms",
		"message":   info.Message,
		"status":    string(to),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	sess.Metadata["notifications"] = notifications

	switch to {
	case status.SSBApprovedAwaitingDelivery:
		if !sess.Metadata.GetBool("delivery_record_created", false) {
			sess.Metadata["delivery_record_created"] = true
			sess.Metadata["delivery_record_pending"] = true
		}
	case status.SSBBlacklistReportRequested:
		if !sess.Metadata.GetBool("report_payment_initiated", false) {
			sess.Metadata["report_payment_initiated"] = true
			sess.Metadata["report_payment_pending"] = true
		}
	}
}

// fireSideEffects runs each mandatory side effect in its own error
// boundary. Failures are logged for manual follow-up.
func (s *Service) fireSideEffects(ctx context.Context, sess *session.Session, m *status.Machine, to status.Status) {
	info, _ := m.Info(to)
	if err := s.notifier.SendSMS(ctx, sess.UserIdentifier, info.Message); err != nil {
		s.logger.Error().Err(err).
			Str("sessionId", sess.SessionID).
			Str("status", string(to)).
			Msg("sms notification failed")
	}

	if sess.Metadata.GetBool("delivery_record_pending", false) {
		details := session.Document{
			"product":  sess.FormData.GetString("selectedProductName", ""),
			"package":  sess.FormData.GetString("selectedPackage", ""),
			"currency": sess.FormData.GetString("currency", ""),
		}
		if err := s.delivery.CreateDeliveryRecord(ctx, sess.SessionID, details); err != nil {
			s.logger.Error().Err(err).
				Str("sessionId", sess.SessionID).
				Msg("delivery record creation failed")
		} else {
			delete(sess.Metadata, "delivery_record_pending")
			s.persistFlags(ctx, sess)
		}
	}

	if sess.Metadata.GetBool("report_payment_pending", false) {
		currency := sess.FormData.GetString("currency", "USD")
		if err := s.payments.InitiatePayment(ctx, sess.UserIdentifier, blacklistReportPrice, currency, "blacklist_report"); err != nil {
			s.logger.Error().Err(err).
				Str("sessionId", sess.SessionID).
				Msg("report payment initiation failed")
		} else {
			delete(sess.Metadata, "report_payment_pending")
			s.persistFlags(ctx, sess)
		}
	}
}

func (s *Service) persistFlags(ctx context.Context, sess *session.Session) {
	if err := s.store.Update(ctx, sess, nil); err != nil {
		s.logger.Warn().Err(err).Str("sessionId", sess.SessionID).Msg("failed to persist side-effect flags")
	}
}

// DetailsForClient is the read model consumed by the status page and
// the chat layer.
func (s *Service) DetailsForClient(sess *session.Session) (status.Details, bool) {
	for _, m := range []*status.Machine{status.SSB, status.ZB} {
		if current, ok := m.CurrentIn(sess.Metadata); ok {
			return m.DetailsFor(current)
		}
	}
	return status.Details{}, false
}

// ProcessGoodCredit records a passing credit check and moves the
// application on to approval, attaching the computed installment as
// evidence.
func (s *Service) ProcessGoodCredit(ctx context.Context, sess *session.Session, notes string) error {
	amount := sess.FormData.GetFloat("loanAmount", 0)
	period := int(sess.FormData.GetFloat("loanPeriodMonths", 0))
	data := session.Document{
		"loan_amount":         amount,
		"period_months":       float64(period),
		"current_installment": MonthlyInstallment(amount, ssbAnnualRate, period),
	}
	if ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBCreditCheckGood, notes, data); err != nil || !ok {
		return orRefused(ok, err)
	}
	ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBPendingApproval, "", nil)
	return orRefused(ok, err)
}

// ProcessPoorCredit rejects on a failed credit check, then immediately
// re-opens into the blacklist-report decision. Two chained transitions
// keep both visible in the audit trail.
func (s *Service) ProcessPoorCredit(ctx context.Context, sess *session.Session, notes string) error {
	if ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBCreditCheckPoor, notes, nil); err != nil || !ok {
		return orRefused(ok, err)
	}
	if ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBRejected, "", nil); err != nil || !ok {
		return orRefused(ok, err)
	}
	ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBAwaitingBlacklistReport, "", nil)
	return orRefused(ok, err)
}

// ProcessInsufficientSalary records that the salary cannot carry the
// requested period and asks the applicant to accept a recommended
// longer period. Both installments are attached as evidence; the
// application never moves directly to a terminal state from here.
func (s *Service) ProcessInsufficientSalary(ctx context.Context, sess *session.Session, recommendedPeriodMonths int, notes string) error {
	amount := sess.FormData.GetFloat("loanAmount", 0)
	currentPeriod := int(sess.FormData.GetFloat("loanPeriodMonths", 0))
	data := session.Document{
		"loan_amount":               amount,
		"current_period_months":     float64(currentPeriod),
		"recommended_period_months": float64(recommendedPeriodMonths),
		"current_installment":       MonthlyInstallment(amount, ssbAnnualRate, currentPeriod),
		"recommended_installment":   MonthlyInstallment(amount, ssbAnnualRate, recommendedPeriodMonths),
	}
	if ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBInsufficientSalary, notes, data); err != nil || !ok {
		return orRefused(ok, err)
	}
	ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBAwaitingPeriodAdjustment, "", data)
	return orRefused(ok, err)
}

// AcceptRecommendedPeriod applies the applicant's acceptance of the
// recommended repayment period.
func (s *Service) AcceptRecommendedPeriod(ctx context.Context, sess *session.Session) error {
	history := status.SSB.HistoryIn(sess.Metadata)
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].GetString("status", "") != string(status.SSBAwaitingPeriodAdjustment) {
			continue
		}
		if data := history[i].GetMap("data"); data != nil {
			if months := data.GetFloat("recommended_period_months", 0); months > 0 {
				sess.FormData["loanPeriodMonths"] = months
			}
		}
		break
	}
	ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBPendingApproval, "recommended period accepted", nil)
	return orRefused(ok, err)
}

// ProcessInvalidID flags an unverifiable national ID and waits for a
// correction.
func (s *Service) ProcessInvalidID(ctx context.Context, sess *session.Session, notes string) error {
	if ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBInvalidID, notes, nil); err != nil || !ok {
		return orRefused(ok, err)
	}
	ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBAwaitingIDCorrection, "", nil)
	return orRefused(ok, err)
}

// ProcessContractExpiring flags an employment contract that ends inside
// the requested period and asks the applicant to confirm a shorter one.
func (s *Service) ProcessContractExpiring(ctx context.Context, sess *session.Session, maxPeriodMonths int, notes string) error {
	amount := sess.FormData.GetFloat("loanAmount", 0)
	data := session.Document{
		"max_period_months":   float64(maxPeriodMonths),
		"max_installment":     MonthlyInstallment(amount, ssbAnnualRate, maxPeriodMonths),
		"current_installment": MonthlyInstallment(amount, ssbAnnualRate, int(sess.FormData.GetFloat("loanPeriodMonths", 0))),
	}
	if ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBContractExpiring, notes, data); err != nil || !ok {
		return orRefused(ok, err)
	}
	ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBAwaitingContractDecision, "", data)
	return orRefused(ok, err)
}

// RequestBlacklistReport starts the paid credit-report flow for a
// declined applicant.
func (s *Service) RequestBlacklistReport(ctx context.Context, sess *session.Session) error {
	ok, err := s.UpdateStatus(ctx, sess, status.SSB, status.SSBBlacklistReportRequested, "", nil)
	return orRefused(ok, err)
}

func orRefused(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return status.ErrInvalidTransition
	}
	return nil
}
