package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatbot-dashboard/internal/domain"
	"chatbot-dashboard/internal/repository"
)

type mockClearer struct {
	operator string
	botID    string
	err      error
}

func (m *mockClearer) ClearIfSelected(_ context.Context, operatorID, botID string) error {
	m.operator = operatorID
	m.botID = botID
	return m.err
}

func fixClock(t *testing.T) {
	t.Helper()
	prevUUID, prevNow := newUUID, nowUTC
	newUUID = func() string { return "bot-uuid" }
	nowUTC = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() {
		newUUID, nowUTC = prevUUID, prevNow
	})
}

func mustNewBotService(t *testing.T, store BotStore, clearer SelectionClearer) *BotService {
	t.Helper()
	svc, err := NewBotService(store, clearer)
	require.NoError(t, err)
	return svc
}

func TestNewBotService_ValidatesDependencies(t *testing.T) {
	_, err := NewBotService(nil, nil)
	require.Error(t, err)
}

func TestListBots_EmptyIsNotNil(t *testing.T) {
	svc := mustNewBotService(t, newMockBots(), nil)
	bots, err := svc.ListBots(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, bots)
	require.Empty(t, bots)
}

func TestListBots_Errors(t *testing.T) {
	store := newMockBots()
	store.listErr = errors.New("boom")
	svc := mustNewBotService(t, store, nil)

	_, err := svc.ListBots(context.Background(), "t1")
	require.Equal(t, ErrorInternal, CodeOf(err))

	_, err = svc.ListBots(context.Background(), "")
	require.Equal(t, ErrorInvalidInput, CodeOf(err))
}

func TestGetBot_NotFound(t *testing.T) {
	svc := mustNewBotService(t, newMockBots(), nil)
	_, err := svc.GetBot(context.Background(), "t1", "missing")
	require.Equal(t, ErrorNotFound, CodeOf(err))
}

func TestCreateBot_HappyPath(t *testing.T) {
	fixClock(t)
	store := newMockBots()
	svc := mustNewBotService(t, store, nil)

	bot, err := svc.CreateBot(context.Background(), "t1", BotInput{Name: "  Support ", Description: " Answers FAQs "})
	require.NoError(t, err)
	require.Equal(t, domain.Bot{
		ID:          "bot-uuid",
		TenantID:    "t1",
		Name:        "Support",
		Description: "Answers FAQs",
		CreatedAt:   "2026-10-15T09:30:00Z",
		UpdatedAt:   "2026-10-15T09:30:00Z",
	}, bot)
	require.Equal(t, []domain.Bot{bot}, store.created)
}

func TestCreateBot_Validation(t *testing.T) {
	cases := []struct {
		name   string
		in     BotInput
		reason string
	}{
		{name: "empty name", in: BotInput{Name: "  "}, reason: "empty_bot_name"},
		{name: "long name", in: BotInput{Name: strings.Repeat("a", 101)}, reason: "bot_name_too_long"},
		{name: "long description", in: BotInput{Name: "ok", Description: strings.Repeat("d", 501)}, reason: "bot_description_too_long"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockBots()
			svc := mustNewBotService(t, store, nil)

			_, err := svc.CreateBot(context.Background(), "t1", tc.in)
			var ue *Error
			require.True(t, errors.As(err, &ue))
			require.Equal(t, ErrorInvalidInput, ue.Code)
			require.Equal(t, tc.reason, ue.Reason)
			require.Empty(t, store.created)
		})
	}
}

func TestCreateBot_StoreError(t *testing.T) {
	store := newMockBots()
	store.createErr = errors.New("boom")
	svc := mustNewBotService(t, store, nil)

	_, err := svc.CreateBot(context.Background(), "t1", BotInput{Name: "Support"})
	require.Equal(t, ErrorInternal, CodeOf(err))
}

func TestUpdateBot_KeepsCreatedAt(t *testing.T) {
	fixClock(t)
	store := newMockBots(domain.Bot{ID: "b1", TenantID: "t1", Name: "Old", CreatedAt: "2026-01-01T00:00:00Z"})
	svc := mustNewBotService(t, store, nil)

	bot, err := svc.UpdateBot(context.Background(), "t1", "b1", BotInput{Name: "New", Description: "desc"})
	require.NoError(t, err)
	require.Equal(t, "New", bot.Name)
	require.Equal(t, "2026-01-01T00:00:00Z", bot.CreatedAt)
	require.Equal(t, "2026-10-15T09:30:00Z", bot.UpdatedAt)
	require.Len(t, store.updated, 1)
}

func TestUpdateBot_Missing(t *testing.T) {
	svc := mustNewBotService(t, newMockBots(), nil)
	_, err := svc.UpdateBot(context.Background(), "t1", "b1", BotInput{Name: "New"})
	require.Equal(t, ErrorNotFound, CodeOf(err))
}

func TestUpdateBot_ConcurrentDeleteMapsToNotFound(t *testing.T) {
	store := newMockBots(domain.Bot{ID: "b1", TenantID: "t1", Name: "Old"})
	store.updateErr = repository.ErrNotFound
	svc := mustNewBotService(t, store, nil)

	_, err := svc.UpdateBot(context.Background(), "t1", "b1", BotInput{Name: "New"})
	require.Equal(t, ErrorNotFound, CodeOf(err))
}

func TestDeleteBot_ClearsSelection(t *testing.T) {
	store := newMockBots(domain.Bot{ID: "b1", TenantID: "t1"})
	clearer := &mockClearer{}
	svc := mustNewBotService(t, store, clearer)

	require.NoError(t, svc.DeleteBot(context.Background(), "t1", "op-1", " b1 "))
	require.Equal(t, []string{"t1/b1"}, store.deleted)
	require.Equal(t, "op-1", clearer.operator)
	require.Equal(t, "b1", clearer.botID)
}

func TestDeleteBot_Errors(t *testing.T) {
	store := newMockBots()
	svc := mustNewBotService(t, store, &mockClearer{})

	require.Equal(t, ErrorInvalidInput, CodeOf(svc.DeleteBot(context.Background(), "t1", "op-1", "")))

	store.deleteErr = errors.New("boom")
	require.Equal(t, ErrorInternal, CodeOf(svc.DeleteBot(context.Background(), "t1", "op-1", "b1")))
}

func TestDeleteBot_SelectionClearFailureStillSucceeds(t *testing.T) {
	store := newMockBots(domain.Bot{ID: "b1", TenantID: "t1"})
	clearer := &mockClearer{err: newError(ErrorInternal, "selection_save_error", nil)}
	svc := mustNewBotService(t, store, clearer)

	require.NoError(t, svc.DeleteBot(context.Background(), "t1", "op-1", "b1"))
	require.Equal(t, []string{"t1/b1"}, store.deleted)
	require.Equal(t, "b1", clearer.botID)
}
