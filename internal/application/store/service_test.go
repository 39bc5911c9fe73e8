package store

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/intake-hub/intake-hub/internal/domain/session"
	"github.com/intake-hub/intake-hub/internal/domain/session/mocks"
)

func newTestService() (*Service, *mocks.MockRepository, *mocks.MockTransitionRepository, *mocks.MockReferenceCodeRepository) {
	sessions := new(mocks.MockRepository)
	transitions := new(mocks.MockTransitionRepository)
	codes := new(mocks.MockReferenceCodeRepository)
	svc := NewService(sessions, transitions, codes, zerolog.Nop())
	return svc, sessions, transitions, codes
}

func TestSaveNewSession(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	sessions.On("GetBySessionID", ctx, "whatsapp:263771234567").Return(nil, nil)
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.Save(ctx, SaveParams{
		Channel:        session.ChannelWhatsApp,
		UserIdentifier: "+263 771 234 567",
		Step:           "main_menu",
		Data:           session.Document{"language": "en"},
	})
	require.NoError(t, err)
	assert.Equal(t, "whatsapp:263771234567", sess.SessionID)
	assert.Equal(t, session.StepMainMenu, sess.CurrentStep)
	assert.Equal(t, "263771234567", sess.UserIdentifier)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), sess.ExpiresAt, time.Minute)

	call := sessions.Calls[1]
	transition := call.Arguments.Get(2).(*session.StateTransition)
	assert.Equal(t, session.InitialStep, transition.FromStep)
	assert.Equal(t, session.StepMainMenu, transition.ToStep)
}

func TestSaveCoercesUnknownStep(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	sessions.On("GetBySessionID", ctx, mock.Anything).Return(nil, nil)
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.Save(ctx, SaveParams{
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		Step:           "not_a_real_step",
	})
	require.NoError(t, err)
	assert.Equal(t, session.InitialStep, sess.CurrentStep)
}

func TestSaveScrubsStringLeaves(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	sessions.On("GetBySessionID", ctx, mock.Anything).Return(nil, nil)
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.Save(ctx, SaveParams{
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		Step:           "first_name",
		Data:           session.Document{"firstName": "Ta\x00ri"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Tari", sess.FormData.GetString("firstName", ""))
}

func TestSaveRejectsEmptyIdentifier(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Save(context.Background(), SaveParams{
		Channel:        session.ChannelWeb,
		UserIdentifier: "###",
		Step:           "main_menu",
	})
	assert.Error(t, err)
}

func TestSavePreservesExistingReferenceCode(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	code := "AB2CD3"
	expires := time.Now().Add(20 * 24 * time.Hour)
	sessions.On("GetBySessionID", ctx, "web:user@example.com").Return(&session.Session{
		SessionID:            "web:user@example.com",
		Channel:              session.ChannelWeb,
		UserIdentifier:       "user@example.com",
		CurrentStep:          session.StepFirstName,
		ReferenceCode:        &code,
		ReferenceCodeExpires: &expires,
	}, nil)
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.Save(ctx, SaveParams{
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		Step:           "last_name",
	})
	require.NoError(t, err)
	require.NotNil(t, sess.ReferenceCode)
	assert.Equal(t, code, *sess.ReferenceCode)

	transition := sessions.Calls[1].Arguments.Get(2).(*session.StateTransition)
	assert.Equal(t, session.StepFirstName, transition.FromStep)
}

func TestRetrieveExpiredReturnsNil(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	sessions.On("GetByUserIdentifier", ctx, "user@example.com", (*session.Channel)(nil)).Return(&session.Session{
		SessionID: "web:user@example.com",
		ExpiresAt: time.Now().Add(-time.Hour),
	}, nil)

	sess, err := svc.Retrieve(ctx, "user@example.com", nil)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestRetrieveCoercesUnknownPersistedStep(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	sessions.On("GetByUserIdentifier", ctx, "user@example.com", (*session.Channel)(nil)).Return(&session.Session{
		SessionID:   "web:user@example.com",
		CurrentStep: session.Step("legacy_step"),
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil)

	sess, err := svc.Retrieve(ctx, "user@example.com", nil)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, session.InitialStep, sess.CurrentStep)
}

func TestSaveRetriesTransientErrors(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	sessions.On("GetBySessionID", ctx, mock.Anything).Return(nil, nil)
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(syscall.ECONNRESET).Twice()
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Save(ctx, SaveParams{
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		Step:           "main_menu",
	})
	require.NoError(t, err)
	sessions.AssertNumberOfCalls(t, "UpsertWithTransition", 3)
}

func TestSaveDoesNotRetryPermanentErrors(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	permanent := errors.New("constraint violation")
	sessions.On("GetBySessionID", ctx, mock.Anything).Return(nil, nil)
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(permanent)

	_, err := svc.Save(ctx, SaveParams{
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		Step:           "main_menu",
	})
	assert.ErrorIs(t, err, permanent)
	sessions.AssertNumberOfCalls(t, "UpsertWithTransition", 1)
}

func TestEnsureReferenceCodeMintsWhenMissing(t *testing.T) {
	svc, _, _, codes := newTestService()
	ctx := context.Background()
	sess := &session.Session{SessionID: "web:user@example.com"}

	codes.On("GetBySessionID", ctx, sess.SessionID).Return(nil, nil)
	codes.On("Upsert", ctx, mock.Anything).Return(nil)

	code, err := svc.EnsureReferenceCode(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	require.NotNil(t, sess.ReferenceCode)
	assert.Equal(t, code, *sess.ReferenceCode)
	assert.Equal(t, code, sess.FormData.GetString("referenceCode", ""))
}

func TestEnsureReferenceCodeReusesLiveCode(t *testing.T) {
	svc, _, _, codes := newTestService()
	ctx := context.Background()
	sess := &session.Session{SessionID: "web:user@example.com"}

	codes.On("GetBySessionID", ctx, sess.SessionID).Return(&session.ReferenceCode{
		Code:      "XY34ZW",
		SessionID: sess.SessionID,
		ExpiresAt: time.Now().Add(20 * 24 * time.Hour),
	}, nil)

	code, err := svc.EnsureReferenceCode(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "XY34ZW", code)
	codes.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestEnsureReferenceCodeExtendsNearExpiry(t *testing.T) {
	svc, _, _, codes := newTestService()
	ctx := context.Background()
	sess := &session.Session{SessionID: "web:user@example.com"}

	codes.On("GetBySessionID", ctx, sess.SessionID).Return(&session.ReferenceCode{
		Code:      "XY34ZW",
		SessionID: sess.SessionID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil)
	codes.On("ExtendExpiry", ctx, "XY34ZW", mock.Anything).Return(nil)

	code, err := svc.EnsureReferenceCode(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "XY34ZW", code)
	codes.AssertCalled(t, "ExtendExpiry", ctx, "XY34ZW", mock.Anything)
}

func TestResolveReferenceCodeUnknown(t *testing.T) {
	svc, _, _, codes := newTestService()
	ctx := context.Background()

	codes.On("GetByCode", ctx, "AB2CD3").Return(nil, nil)

	sess, err := svc.ResolveReferenceCode(ctx, " ab2cd3 ")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestResolveReferenceCodeReturnsSession(t *testing.T) {
	svc, sessions, _, codes := newTestService()
	ctx := context.Background()

	codes.On("GetByCode", ctx, "AB2CD3").Return(&session.ReferenceCode{
		Code:      "AB2CD3",
		SessionID: "web:user@example.com",
		ExpiresAt: time.Now().Add(20 * 24 * time.Hour),
	}, nil)
	sessions.On("GetBySessionID", ctx, "web:user@example.com").Return(&session.Session{
		SessionID:   "web:user@example.com",
		CurrentStep: session.StepConfirmation,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil)

	sess, err := svc.ResolveReferenceCode(ctx, "ab2cd3")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, session.StepConfirmation, sess.CurrentStep)
}

func TestExpireSweepsSessionsAndCodes(t *testing.T) {
	svc, sessions, _, codes := newTestService()
	ctx := context.Background()

	sessions.On("DeleteExpired", ctx, mock.Anything).Return(4, nil)
	codes.On("DeleteExpired", ctx, mock.Anything).Return(2, nil)

	n, err := svc.Expire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSaveSucceedsWhenAuditRowFails(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	sessions.On("GetBySessionID", ctx, mock.Anything).Return(nil, nil)
	auditErr := fmt.Errorf("%w: trigger payload too large", session.ErrTransitionNotRecorded)
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(auditErr)

	sess, err := svc.Save(ctx, SaveParams{
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		Step:           "main_menu",
		Data:           session.Document{"language": "en"},
	})
	require.NoError(t, err)
	require.NotNil(t, sess)
	// Degraded success, not a transient error: no retries.
	sessions.AssertNumberOfCalls(t, "UpsertWithTransition", 1)
}

func TestResaveSameDocumentIsIdempotent(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	params := SaveParams{
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		Step:           "main_menu",
		Data:           session.Document{"language": "en", "firstName": "Tari"},
	}

	sessions.On("GetBySessionID", ctx, "web:user@example.com").Return(nil, nil).Once()
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(nil)

	first, err := svc.Save(ctx, params)
	require.NoError(t, err)

	sessions.On("GetBySessionID", ctx, "web:user@example.com").Return(first, nil)
	second, err := svc.Save(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, first.FormData, second.FormData)
	assert.Equal(t, first.CurrentStep, second.CurrentStep)
	assert.False(t, second.ExpiresAt.Before(first.ExpiresAt))

	// The second audit row records a self-transition.
	transition := sessions.Calls[len(sessions.Calls)-1].Arguments.Get(2).(*session.StateTransition)
	assert.Equal(t, session.StepMainMenu, transition.FromStep)
	assert.Equal(t, session.StepMainMenu, transition.ToStep)
}

func TestUpdateWithoutTriggerSkipsAuditRow(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	sess := &session.Session{
		SessionID:      "web:user@example.com",
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		CurrentStep:    session.StepCompleted,
		FormData:       session.Document{},
		Metadata:       session.Document{"contract_pdf_queued": true},
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	sessions.On("GetBySessionID", ctx, sess.SessionID).Return(sess, nil)
	sessions.On("Upsert", ctx, sess).Return(nil)

	require.NoError(t, svc.Update(ctx, sess, nil))
	sessions.AssertCalled(t, "Upsert", ctx, sess)
	sessions.AssertNotCalled(t, "UpsertWithTransition", mock.Anything, mock.Anything, mock.Anything)
}

func TestListIdlePassesWindowThrough(t *testing.T) {
	svc, sessions, _, _ := newTestService()
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-6 * time.Hour)
	idle := []*session.Session{{SessionID: "whatsapp:263771234567"}}
	sessions.On("ListIdle", ctx, session.ChannelWhatsApp, cutoff, 100).Return(idle, nil)

	out, err := svc.ListIdle(ctx, session.ChannelWhatsApp, cutoff, 100)
	require.NoError(t, err)
	assert.Equal(t, idle, out)
}
