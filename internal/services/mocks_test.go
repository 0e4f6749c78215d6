package services

import (
	"context"
	"database/sql"

	"github.com/olosevents/backend/internal/database"
	"github.com/olosevents/backend/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockEventReader struct {
	mock.Mock
}

func (m *MockEventReader) GetEvent(ctx context.Context, q database.Querier, eventID string) (*models.EventSnapshot, error) {
	args := m.Called(ctx, q, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventSnapshot), args.Error(1)
}

func (m *MockEventReader) LockEvent(ctx context.Context, tx *sql.Tx, eventID string) (*models.EventSnapshot, error) {
	args := m.Called(ctx, tx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventSnapshot), args.Error(1)
}

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetUser(ctx context.Context, q database.Querier, userID string) (*models.UserSnapshot, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSnapshot), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyHostOfJoin(ctx context.Context, n models.ReservationNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotifier) NotifyHostOfCancellation(ctx context.Context, n models.ReservationNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockChat struct {
	mock.Mock
}

func (m *MockChat) AddUserToEventChat(ctx context.Context, eventID, userID string) error {
	args := m.Called(ctx, eventID, userID)
	return args.Error(0)
}

func (m *MockChat) RemoveUserFromEventChat(ctx context.Context, eventID, userID string) error {
	args := m.Called(ctx, eventID, userID)
	return args.Error(0)
}
