package game

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tarinagarwal/Skribbl-production/domain"
)

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkSession) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- RandomWordsGenerator ---

type MockRandomWordsGenerator struct {
	mock.Mock
}

func (m *MockRandomWordsGenerator) Draw(ctx context.Context, count int, difficulty string) ([]string, error) {
	args := m.Called(ctx, count, difficulty)
	return args.Get(0).([]string), args.Error(1)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RemoveRoom(code string) {
	m.Called(code)
}

func (m *MockLobby) UpdateDescription(desc RoomDescription) {
	m.Called(desc)
}

// --- Store ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertRoom(ctx context.Context, rec domain.RoomRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) UpdateRoom(ctx context.Context, rec domain.RoomRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) UpsertParticipant(ctx context.Context, rec domain.ParticipantRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) UpsertScore(ctx context.Context, roomID, participantID string, points int) error {
	args := m.Called(ctx, roomID, participantID, points)
	return args.Error(0)
}

func (m *MockStore) AppendChat(ctx context.Context, rec domain.ChatRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) LatestRoomByCode(ctx context.Context, code string) (domain.RoomRecord, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.RoomRecord), args.Error(1)
}

func (m *MockStore) ParticipantsForRoom(ctx context.Context, roomID string) ([]domain.ParticipantRecord, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]domain.ParticipantRecord), args.Error(1)
}
