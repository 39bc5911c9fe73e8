package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// MockRepository is a mock implementation of session.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Upsert(ctx context.Context, s *session.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockRepository) UpsertWithTransition(ctx context.Context, s *session.Session, t *session.StateTransition) error {
	args := m.Called(ctx, s, t)
	return args.Error(0)
}

func (m *MockRepository) GetBySessionID(ctx context.Context, sessionID string) (*session.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockRepository) GetByUserIdentifier(ctx context.Context, userIdentifier string, channel *session.Channel) (*session.Session, error) {
	args := m.Called(ctx, userIdentifier, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockRepository) ListIdle(ctx context.Context, channel session.Channel, idleBefore time.Time, limit int) ([]*session.Session, error) {
	args := m.Called(ctx, channel, idleBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

func (m *MockRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// MockTransitionRepository is a mock implementation of session.TransitionRepository
type MockTransitionRepository struct {
	mock.Mock
}

func (m *MockTransitionRepository) Create(ctx context.Context, t *session.StateTransition) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransitionRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*session.StateTransition, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.StateTransition), args.Error(1)
}

// MockReferenceCodeRepository is a mock implementation of session.ReferenceCodeRepository
type MockReferenceCodeRepository struct {
	mock.Mock
}

func (m *MockReferenceCodeRepository) Upsert(ctx context.Context, c *session.ReferenceCode) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockReferenceCodeRepository) GetByCode(ctx context.Context, code string) (*session.ReferenceCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.ReferenceCode), args.Error(1)
}

func (m *MockReferenceCodeRepository) GetBySessionID(ctx context.Context, sessionID string) (*session.ReferenceCode, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.ReferenceCode), args.Error(1)
}

func (m *MockReferenceCodeRepository) ExtendExpiry(ctx context.Context, code string, expiresAt time.Time) error {
	args := m.Called(ctx, code, expiresAt)
	return args.Error(0)
}

func (m *MockReferenceCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}
