package sync

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/intake-hub/intake-hub/internal/application/store"
	"github.com/intake-hub/intake-hub/internal/domain/session"
	"github.com/intake-hub/intake-hub/internal/domain/session/mocks"
)

func newTestSync() (*Service, *mocks.MockRepository, *mocks.MockReferenceCodeRepository) {
	sessions := new(mocks.MockRepository)
	transitions := new(mocks.MockTransitionRepository)
	codes := new(mocks.MockReferenceCodeRepository)
	storeSvc := store.NewService(sessions, transitions, codes, zerolog.Nop())
	return NewService(storeSvc, zerolog.Nop()), sessions, codes
}

func TestSelectPrimaryMorePopulatedWins(t *testing.T) {
	a := &session.Session{FormData: session.Document{"x": "1", "y": "2"}}
	b := &session.Session{FormData: session.Document{"x": "9"}}
	p, s := selectPrimary(a, b)
	assert.Same(t, a, p)
	assert.Same(t, b, s)
}

func TestSelectPrimaryTieBreaksOnRecency(t *testing.T) {
	now := time.Now()
	a := &session.Session{FormData: session.Document{"x": "1"}, UpdatedAt: now.Add(-time.Hour)}
	b := &session.Session{FormData: session.Document{"x": "9"}, UpdatedAt: now}
	p, _ := selectPrimary(a, b)
	assert.Same(t, b, p)
}

func TestMergeFormDataPrimaryOverrides(t *testing.T) {
	primary := session.Document{"x": "1"}
	secondary := session.Document{"x": "2", "y": "3"}
	merged := mergeFormData(primary, secondary)
	assert.Equal(t, "1", merged.GetString("x", ""))
	assert.Equal(t, "3", merged.GetString("y", ""))
}

func TestSynchronizeWritesMergedDocumentsToBothSides(t *testing.T) {
	svc, sessions, _ := newTestSync()
	ctx := context.Background()
	live := time.Now().Add(time.Hour)

	web := &session.Session{
		SessionID:      "web:user@example.com",
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		CurrentStep:    session.StepConfirmation,
		FormData:       session.Document{"firstName": "Tari", "lastName": "Moyo"},
		ExpiresAt:      live,
		UpdatedAt:      time.Now().Add(-time.Hour),
	}
	wa := &session.Session{
		SessionID:      "whatsapp:263771234567",
		Channel:        session.ChannelWhatsApp,
		UserIdentifier: "263771234567",
		CurrentStep:    session.StepFirstName,
		FormData:       session.Document{"language": "en"},
		ExpiresAt:      live,
		UpdatedAt:      time.Now(),
	}

	sessions.On("GetBySessionID", ctx, web.SessionID).Return(web, nil)
	sessions.On("GetBySessionID", ctx, wa.SessionID).Return(wa, nil)
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Synchronize(ctx, web.SessionID, wa.SessionID)
	require.NoError(t, err)

	// The web side carries more fields, so it is authoritative.
	assert.Equal(t, web.SessionID, result.PrimaryID)
	assert.Equal(t, wa.SessionID, result.SecondaryID)

	for _, sess := range []*session.Session{web, wa} {
		assert.Equal(t, "Tari", sess.FormData.GetString("firstName", ""))
		assert.Equal(t, "en", sess.FormData.GetString("language", ""))
		assert.Equal(t, session.StepConfirmation, sess.CurrentStep)
		assert.NotEmpty(t, sess.Metadata.GetString("last_sync", ""))
		assert.Equal(t, "web", sess.Metadata.GetString("sync_source", ""))
	}
	sessions.AssertNumberOfCalls(t, "UpsertWithTransition", 2)
}

func TestSynchronizeOneSidedIsANoOpMerge(t *testing.T) {
	svc, sessions, _ := newTestSync()
	ctx := context.Background()

	web := &session.Session{
		SessionID:   "web:user@example.com",
		Channel:     session.ChannelWeb,
		CurrentStep: session.StepMainMenu,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	sessions.On("GetBySessionID", ctx, web.SessionID).Return(web, nil)
	sessions.On("GetBySessionID", ctx, "whatsapp:unreached").Return(nil, nil)

	result, err := svc.Synchronize(ctx, web.SessionID, "whatsapp:unreached")
	require.NoError(t, err)
	assert.Equal(t, web.SessionID, result.PrimaryID)
	assert.Empty(t, result.SecondaryID)
	sessions.AssertNotCalled(t, "UpsertWithTransition", mock.Anything, mock.Anything, mock.Anything)
}

func TestSynchronizeBothMissing(t *testing.T) {
	svc, sessions, _ := newTestSync()
	ctx := context.Background()
	sessions.On("GetBySessionID", ctx, mock.Anything).Return(nil, nil)

	_, err := svc.Synchronize(ctx, "web:a", "whatsapp:b")
	assert.Error(t, err)
}

func TestSwitchToWhatsAppCreatesTargetWithChatShape(t *testing.T) {
	svc, sessions, codes := newTestSync()
	ctx := context.Background()

	source := &session.Session{
		SessionID:      "web:user@example.com",
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		CurrentStep:    session.StepConfirmation,
		FormData: session.Document{
			"selectedBusiness": map[string]any{"id": "5", "name": "Maize"},
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	targetID := "whatsapp:263771234567"

	sessions.On("GetBySessionID", ctx, source.SessionID).Return(source, nil)
	sessions.On("GetBySessionID", ctx, targetID).Return(nil, nil)
	sessions.On("UpsertWithTransition", ctx, mock.Anything, mock.Anything).Return(nil)
	sessions.On("Upsert", ctx, mock.Anything).Return(nil)
	codes.On("GetBySessionID", ctx, targetID).Return(nil, nil)
	codes.On("Upsert", ctx, mock.Anything).Return(nil)

	result, err := svc.SwitchToWhatsApp(ctx, source.SessionID, "+263 771 234 567")
	require.NoError(t, err)

	require.NotNil(t, result.Session)
	assert.Equal(t, targetID, result.Session.SessionID)
	assert.Equal(t, session.ChannelWhatsApp, result.Session.Channel)
	assert.Equal(t, session.StepConfirmation, result.Session.CurrentStep)
	assert.Equal(t, "5", result.Session.FormData.GetString("selectedCategory", ""))
	assert.Equal(t, "Maize", result.Session.FormData.GetString("selectedCategoryName", ""))
	assert.Nil(t, result.Session.FormData["selectedBusiness"])
	assert.Len(t, result.ReferenceCode, 6)
	assert.Equal(t, source.SessionID, result.Session.Metadata.GetString("merged_from", ""))
}

func TestSwitchChannelRequiresSource(t *testing.T) {
	svc, sessions, _ := newTestSync()
	ctx := context.Background()
	sessions.On("GetBySessionID", ctx, "web:missing").Return(nil, nil)

	_, err := svc.SwitchToWhatsApp(ctx, "web:missing", "263771234567")
	assert.Error(t, err)
}

// memSessionRepo is an in-memory session.Repository for multi-step
// flows where canned mock returns get in the way.
type memSessionRepo struct {
	byID map[string]*session.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byID: map[string]*session.Session{}}
}

func (r *memSessionRepo) Upsert(_ context.Context, s *session.Session) error {
	s.UpdatedAt = time.Now().UTC()
	r.byID[s.SessionID] = cloneSession(s)
	return nil
}

func (r *memSessionRepo) UpsertWithTransition(ctx context.Context, s *session.Session, _ *session.StateTransition) error {
	return r.Upsert(ctx, s)
}

func (r *memSessionRepo) GetBySessionID(_ context.Context, id string) (*session.Session, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (r *memSessionRepo) GetByUserIdentifier(_ context.Context, userIdentifier string, channel *session.Channel) (*session.Session, error) {
	for _, s := range r.byID {
		if s.UserIdentifier != userIdentifier {
			continue
		}
		if channel != nil && s.Channel != *channel {
			continue
		}
		return cloneSession(s), nil
	}
	return nil, nil
}

func (r *memSessionRepo) ListIdle(context.Context, session.Channel, time.Time, int) ([]*session.Session, error) {
	return nil, nil
}

func (r *memSessionRepo) DeleteExpired(context.Context, time.Time) (int, error) { return 0, nil }

func cloneSession(s *session.Session) *session.Session {
	out := *s
	out.FormData = s.FormData.Clone()
	out.Metadata = s.Metadata.Clone()
	return &out
}

func TestChannelSwitchRoundTripKeepsSelection(t *testing.T) {
	ctx := context.Background()
	sessionsRepo := newMemSessionRepo()
	transitions := new(mocks.MockTransitionRepository)
	codes := new(mocks.MockReferenceCodeRepository)
	codes.On("GetBySessionID", mock.Anything, mock.Anything).Return(nil, nil)
	codes.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	storeSvc := store.NewService(sessionsRepo, transitions, codes, zerolog.Nop())
	svc := NewService(storeSvc, zerolog.Nop())

	web := &session.Session{
		SessionID:      "web:user@example.com",
		Channel:        session.ChannelWeb,
		UserIdentifier: "user@example.com",
		CurrentStep:    session.StepConfirmation,
		FormData: session.Document{
			"selectedBusiness": map[string]any{"id": "5", "name": "Maize"},
		},
		Metadata:  session.Document{},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, sessionsRepo.Upsert(ctx, web))

	toChat, err := svc.SwitchToWhatsApp(ctx, web.SessionID, "263771234567")
	require.NoError(t, err)
	assert.Equal(t, "5", toChat.Session.FormData.GetString("selectedCategory", ""))
	assert.Nil(t, toChat.Session.FormData["selectedBusiness"])

	backToWeb, err := svc.SwitchToWeb(ctx, toChat.Session.SessionID, "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, backToWeb.Session)

	business := backToWeb.Session.FormData.GetMap("selectedBusiness")
	require.NotNil(t, business)
	assert.Equal(t, "5", business.GetString("id", ""))
	assert.Equal(t, "Maize", business.GetString("name", ""))
}
