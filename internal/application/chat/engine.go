// Package chat implements the conversational state machine that decodes
// chat input into session-step transitions. Transitions are table-driven
// with two escape hatches: dynamic catalog browsing by prefixed id, and
// free-text collection steps. The state write is the authoritative
// action; the outbound message is a best-effort notification of it.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/intake-hub/intake-hub/internal/application/store"
	syncapp "github.com/intake-hub/intake-hub/internal/application/sync"
	"github.com/intake-hub/intake-hub/internal/domain/catalog"
	"github.com/intake-hub/intake-hub/internal/domain/session"
	"github.com/intake-hub/intake-hub/internal/domain/status"
)

// Engine drives the conversational flow for the chat channel.
type Engine struct {
	store     *store.Service
	syncSvc   *syncapp.Service
	catalog   catalog.Directory
	messenger Messenger
	links     *LinkBuilder
	logger    zerolog.Logger
}

// NewEngine creates the conversational state machine.
func NewEngine(
	store *store.Service,
	syncSvc *syncapp.Service,
	directory catalog.Directory,
	messenger Messenger,
	links *LinkBuilder,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		store:     store,
		syncSvc:   syncSvc,
		catalog:   directory,
		messenger: messenger,
		links:     links,
		logger:    logger.With().Str("service", "chat").Logger(),
	}
}

// NormalizeSender strips channel prefixes and formatting from a sender
// address, leaving the bare identifier.
func NormalizeSender(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "whatsapp:")
	s = strings.TrimPrefix(s, "+")
	for _, cut := range []string{" ", "-", "(", ")"} {
		s = strings.ReplaceAll(s, cut, "")
	}
	return session.SanitizeIdentifier(s)
}

// HandleInbound is the sole entry point for chat events. Invalid input
// never corrupts state: the user is re-prompted for the same step.
func (e *Engine) HandleInbound(ctx context.Context, senderAddress, rawText string) error {
	phone := NormalizeSender(senderAddress)
	if phone == "" {
		return fmt.Errorf("invalid sender address %q", senderAddress)
	}
	raw := strings.TrimSpace(rawText)
	normalized := strings.ToLower(raw)

	ch := session.ChannelWhatsApp
	sess, err := e.store.Retrieve(ctx, phone, &ch)
	if err != nil {
		return err
	}

	// Greeting tokens override the table: any in-progress session resets
	// to the initial step with a fresh data bag.
	if _, greeted := greetingTokens[normalized]; greeted || sess == nil {
		return e.reset(ctx, phone, sess, raw)
	}

	if !session.KnownStep(sess.CurrentStep) {
		// Corrupt stored state, not bad input. Tell the user to restart
		// and surface the error to the caller.
		e.send(ctx, phone, OutboundMessage{Body: msgRestart})
		return fmt.Errorf("unknown step %q for session %s", sess.CurrentStep, sess.SessionID)
	}

	if spec, ok := freeTextSteps[sess.CurrentStep]; ok {
		return e.handleFreeText(ctx, sess, spec, raw)
	}
	if spec, ok := catalogSteps[sess.CurrentStep]; ok {
		return e.handleCatalog(ctx, sess, spec, normalized)
	}

	switch sess.CurrentStep {
	case session.StepStatusCheck:
		return e.handleStatusCheck(ctx, sess, raw)
	case session.StepResumeCode:
		return e.handleResumeCode(ctx, sess, raw)
	case session.StepIdleContinue:
		if normalized == "1" {
			return e.resumeIdle(ctx, sess, raw)
		}
	case session.StepCompleted:
		e.send(ctx, phone, OutboundMessage{Body: msgCompletedNudge})
		return nil
	}

	tr, ok := staticTable[sess.CurrentStep][normalized]
	if !ok {
		e.send(ctx, phone, e.invalidInput(sess))
		return nil
	}
	return e.applyTransition(ctx, sess, tr, raw)
}

// NudgeIdle moves a stale session into the idle-continue tail flow,
// stashing the interrupted step so "continue" can return to it.
func (e *Engine) NudgeIdle(ctx context.Context, sess *session.Session) error {
	if sess.CurrentStep == session.StepCompleted || sess.CurrentStep == session.StepIdleContinue {
		return nil
	}
	if sess.Metadata == nil {
		sess.Metadata = session.Document{}
	}
	sess.Metadata["idle_resume_step"] = string(sess.CurrentStep)
	sess.CurrentStep = session.StepIdleContinue
	trigger, _ := json.Marshal(map[string]string{"action": "idle_nudge"})
	if err := e.store.Update(ctx, sess, trigger); err != nil {
		return err
	}
	e.send(ctx, sess.UserIdentifier, e.promptFor(sess))
	return nil
}

func (e *Engine) reset(ctx context.Context, phone string, prev *session.Session, raw string) error {
	sess := &session.Session{
		SessionID:      session.SessionIDFor(session.ChannelWhatsApp, phone),
		Channel:        session.ChannelWhatsApp,
		UserIdentifier: phone,
		CurrentStep:    session.InitialStep,
		FormData:       session.Document{},
		Metadata:       session.Document{},
	}
	// The approval workflow rides in metadata; a greeting restarts the
	// conversation, not the application.
	if prev != nil {
		sess.Metadata = prev.Metadata.Clone()
	}
	trigger, _ := json.Marshal(map[string]string{"action": "reset", "input": raw})
	if err := e.store.Update(ctx, sess, trigger); err != nil {
		return err
	}
	e.send(ctx, phone, e.promptFor(sess))
	return nil
}

func (e *Engine) handleFreeText(ctx context.Context, sess *session.Session, spec freeTextSpec, raw string) error {
	// Free-text preserves original casing; only control characters go.
	value := session.ScrubControlChars(raw)
	if strings.TrimSpace(value) == "" {
		e.send(ctx, sess.UserIdentifier, e.invalidInput(sess))
		return nil
	}
	if sess.FormData == nil {
		sess.FormData = session.Document{}
	}
	sess.FormData[spec.Field] = value
	if spec.Field == "monthlySalary" {
		if amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			sess.FormData["monthlySalaryAmount"] = amount
		}
	}
	return e.advance(ctx, sess, spec.Next, raw)
}

func (e *Engine) handleCatalog(ctx context.Context, sess *session.Session, spec catalogSpec, normalized string) error {
	if normalized == backToken {
		return e.advance(ctx, sess, spec.Back, normalized)
	}
	if sess.FormData == nil {
		sess.FormData = session.Document{}
	}
	id, prefixed := strings.CutPrefix(normalized, spec.Prefix)

	switch sess.CurrentStep {
	case session.StepCategoryBrowse:
		var c catalog.Category
		var ok bool
		if prefixed {
			c, ok = e.catalog.CategoryByID(id)
		} else {
			c, ok = e.catalog.CategoryByName(normalized)
		}
		if !ok {
			e.send(ctx, sess.UserIdentifier, e.notFound(sess))
			return nil
		}
		sess.FormData["selectedCategory"] = c.ID
		sess.FormData["selectedCategoryName"] = c.Name
		return e.advance(ctx, sess, session.StepSubcategoryBrowse, normalized)

	case session.StepSubcategoryBrowse:
		categoryID := sess.FormData.GetString("selectedCategory", "")
		var sub catalog.Subcategory
		var ok bool
		if prefixed {
			sub, ok = e.catalog.SubcategoryByID(id)
		} else {
			sub, ok = e.catalog.SubcategoryByName(categoryID, normalized)
		}
		if !ok || sub.CategoryID != categoryID {
			e.send(ctx, sess.UserIdentifier, e.notFound(sess))
			return nil
		}
		sess.FormData["selectedSubcategory"] = sub.ID
		sess.FormData["selectedSubcategoryName"] = sub.Name
		return e.advance(ctx, sess, session.StepSeriesBrowse, normalized)

	case session.StepSeriesBrowse:
		ser, ok := e.catalog.SeriesByID(id)
		if !prefixed || !ok || ser.SubcategoryID != sess.FormData.GetString("selectedSubcategory", "") {
			e.send(ctx, sess.UserIdentifier, e.notFound(sess))
			return nil
		}
		sess.FormData["selectedSeries"] = ser.ID
		sess.FormData["selectedSeriesName"] = ser.Name
		return e.advance(ctx, sess, session.StepProductBrowse, normalized)

	case session.StepProductBrowse:
		p, ok := e.catalog.ProductByID(id)
		if !prefixed || !ok || p.SeriesID != sess.FormData.GetString("selectedSeries", "") {
			e.send(ctx, sess.UserIdentifier, e.notFound(sess))
			return nil
		}
		sess.FormData["selectedProduct"] = p.ID
		sess.FormData["selectedProductName"] = p.Name
		sess.FormData["loanAmount"] = p.Price
		return e.advance(ctx, sess, session.StepPackageBrowse, normalized)

	case session.StepPackageBrowse:
		pkg, ok := e.catalog.PackageByID(id)
		if !prefixed || !ok || pkg.ProductID != sess.FormData.GetString("selectedProduct", "") {
			e.send(ctx, sess.UserIdentifier, e.notFound(sess))
			return nil
		}
		sess.FormData["selectedPackage"] = pkg.ID
		sess.FormData["loanPeriodMonths"] = float64(pkg.Months)
		sess.FormData["depositPercent"] = pkg.Deposit
		return e.advance(ctx, sess, session.StepFirstName, normalized)
	}

	e.send(ctx, sess.UserIdentifier, e.notFound(sess))
	return nil
}

func (e *Engine) handleStatusCheck(ctx context.Context, sess *session.Session, raw string) error {
	target, err := e.store.ResolveReferenceCode(ctx, raw)
	if err != nil {
		return err
	}
	if target == nil {
		e.send(ctx, sess.UserIdentifier, OutboundMessage{Body: msgCodeNotFound})
		return nil
	}
	details, ok := detailsFor(target)
	body := msgNoStatusYet
	if ok {
		body = renderDetails(details)
	}
	if sess.FormData == nil {
		sess.FormData = session.Document{}
	}
	sess.FormData["statusQueryCode"] = session.NormalizeCode(raw)
	return e.advanceWith(ctx, sess, session.StepCompleted, raw, OutboundMessage{Body: body})
}

func (e *Engine) handleResumeCode(ctx context.Context, sess *session.Session, raw string) error {
	target, err := e.store.ResolveReferenceCode(ctx, raw)
	if err != nil {
		return err
	}
	if target == nil {
		e.send(ctx, sess.UserIdentifier, OutboundMessage{Body: msgCodeNotFound})
		return nil
	}
	result, err := e.syncSvc.SwitchToWhatsApp(ctx, target.SessionID, sess.UserIdentifier)
	if err != nil {
		return err
	}
	prompt := e.promptFor(result.Session)
	prompt.Body = msgResumed + "\n\n" + prompt.Body
	e.send(ctx, sess.UserIdentifier, prompt)
	return nil
}

func (e *Engine) resumeIdle(ctx context.Context, sess *session.Session, raw string) error {
	resume := session.ValidateStep(sess.Metadata.GetString("idle_resume_step", ""))
	delete(sess.Metadata, "idle_resume_step")
	return e.advance(ctx, sess, resume, raw)
}

func (e *Engine) applyTransition(ctx context.Context, sess *session.Session, tr transition, raw string) error {
	if sess.FormData == nil {
		sess.FormData = session.Document{}
	}
	for k, v := range tr.Enrich.Clone() {
		sess.FormData[k] = v
	}
	// Confirming the summary submits the application: the workflow
	// status machine starts and a resume code is issued.
	if sess.CurrentStep == session.StepConfirmation && tr.Next == session.StepCompleted {
		if machine := machineForIntent(sess.FormData.GetString("intent", "")); machine != nil {
			sess.Metadata = machine.InitializeIn(sess.Metadata)
		}
		if _, err := e.store.EnsureReferenceCode(ctx, sess); err != nil {
			return err
		}
	}
	return e.advance(ctx, sess, tr.Next, raw)
}

// advance persists the new step, then emits exactly one outbound message
// describing it. A send failure is logged, never propagated: the saved
// state is authoritative.
func (e *Engine) advance(ctx context.Context, sess *session.Session, next session.Step, raw string) error {
	sess.CurrentStep = next
	return e.advanceWith(ctx, sess, next, raw, e.promptFor(sess))
}

// advanceWith persists the step change and emits the given reply in
// place of the step prompt. One transition, one outbound message.
func (e *Engine) advanceWith(ctx context.Context, sess *session.Session, next session.Step, raw string, msg OutboundMessage) error {
	sess.CurrentStep = next
	trigger, _ := json.Marshal(map[string]string{"input": raw})
	if err := e.store.Update(ctx, sess, trigger); err != nil {
		return err
	}
	e.send(ctx, sess.UserIdentifier, msg)
	return nil
}

func (e *Engine) send(ctx context.Context, to string, msg OutboundMessage) {
	if err := msg.Send(ctx, e.messenger, to); err != nil {
		e.logger.Warn().Err(err).Str("to", to).Msg("failed to send message")
	}
}

func machineForIntent(intent string) *status.Machine {
	switch intent {
	case "ssb_loan":
		return status.SSB
	case "zb_loan":
		return status.ZB
	}
	return nil
}

// detailsFor reads the status read model off whichever product line the
// session carries.
func detailsFor(sess *session.Session) (status.Details, bool) {
	for _, m := range []*status.Machine{status.SSB, status.ZB} {
		if current, ok := m.CurrentIn(sess.Metadata); ok {
			return m.DetailsFor(current)
		}
	}
	return status.Details{}, false
}
