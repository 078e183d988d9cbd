package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

// MockEventsProvider は EventsProvider のテスト用モック
type MockEventsProvider struct {
	mock.Mock
}

func (m *MockEventsProvider) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error) {
	args := m.Called(ctx, calendarID, timeMin, timeMax)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*calendar.Event), args.Error(1)
}

func newTestRepository(provider EventsProvider) (*GoogleCalendarRepository, *time.Location) {
	jst := time.FixedZone("JST", 9*60*60)
	repo := NewGoogleCalendarRepositoryWithProvider(provider, "test-calendar", jst).
		Window(time.Date(2024, 1, 15, 13, 0, 0, 0, jst), time.Date(2024, 1, 17, 0, 0, 0, 0, jst))
	return repo, jst
}

// --- convertToRecord テスト（純粋ロジック） ---

func TestConvertToRecord_TimedEvent(t *testing.T) {
	repo, _ := newTestRepository(nil)

	rec := repo.convertToRecord(1, &calendar.Event{
		Summary:     "朝会",
		Description: "毎日",
		EventType:   "default",
		Start:       &calendar.EventDateTime{DateTime: "2024-01-15T10:00:00+09:00"},
		End:         &calendar.EventDateTime{DateTime: "2024-01-15T11:30:00+09:00"},
	})

	ev, err := domain.NewEvent(rec)
	require.NoError(t, err)
	assert.Equal(t, "朝会", ev.Title())
	assert.Equal(t, "default", ev.Category())
	assert.Equal(t, "10:00", ev.StartTime())
	assert.Equal(t, "11:30", ev.EndTime())
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 15}, ev.StartDate())
	assert.False(t, ev.IsMultiDay())
}

func TestConvertToRecord_AllDayEvent(t *testing.T) {
	repo, _ := newTestRepository(nil)

	rec := repo.convertToRecord(1, &calendar.Event{
		Summary:     "出張",
		Description: "大阪",
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{"categoria": "Trabajo"},
		},
		Start: &calendar.EventDateTime{Date: "2024-01-15"},
		End:   &calendar.EventDateTime{Date: "2024-01-17"},
	})

	ev, err := domain.NewEvent(rec)
	require.NoError(t, err)
	assert.Equal(t, "Trabajo", ev.Category())
	end, ok := ev.EndDate()
	require.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 16}, end)
	assert.True(t, ev.IsMultiDay())
	assert.Empty(t, ev.StartTime())
}

func TestConvertToRecord_InvalidDateTime(t *testing.T) {
	repo, _ := newTestRepository(nil)

	rec := repo.convertToRecord(1, &calendar.Event{
		Summary:     "壊れた予定",
		Description: "x",
		EventType:   "default",
		Start:       &calendar.EventDateTime{DateTime: "invalid-time"},
		End:         &calendar.EventDateTime{},
	})

	_, err := domain.NewEvent(rec)
	assert.ErrorIs(t, err, domain.ErrBadDateFormat)
}

// --- ReadRecords テスト（モック使用） ---

func TestReadRecords_Success(t *testing.T) {
	mockProvider := new(MockEventsProvider)
	repo, _ := newTestRepository(mockProvider)

	events := []*calendar.Event{
		{
			Summary:     "朝会",
			Description: "毎日",
			EventType:   "default",
			Start:       &calendar.EventDateTime{DateTime: "2024-01-15T09:00:00+09:00"},
			End:         &calendar.EventDateTime{DateTime: "2024-01-15T09:30:00+09:00"},
		},
	}

	mockProvider.On("ListEvents", mock.Anything, "test-calendar",
		"2024-01-15T00:00:00+09:00", "2024-01-17T00:00:00+09:00").Return(events, nil)

	records, err := repo.ReadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "朝会", records[0].Title.String())
	assert.Equal(t, 1, records[0].Position)
	mockProvider.AssertExpectations(t)
}

func TestReadRecords_APIError(t *testing.T) {
	mockProvider := new(MockEventsProvider)
	repo, _ := newTestRepository(mockProvider)

	mockProvider.On("ListEvents", mock.Anything, "test-calendar", mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return(nil, errors.New("API error"))

	_, err := repo.ReadRecords(context.Background())
	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCannotOpen)
	assert.Contains(t, err.Error(), "カレンダーイベントの取得に失敗しました")
	mockProvider.AssertExpectations(t)
}

func TestReadRecords_EmptyWindow(t *testing.T) {
	mockProvider := new(MockEventsProvider)
	repo := NewGoogleCalendarRepositoryWithProvider(mockProvider, "test-calendar", time.UTC)

	_, err := repo.ReadRecords(context.Background())
	assert.ErrorIs(t, err, domain.ErrCannotOpen)
	mockProvider.AssertNotCalled(t, "ListEvents")
}
