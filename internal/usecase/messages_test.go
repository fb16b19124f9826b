package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chatbot-dashboard/internal/domain"
)

type mockThreads struct {
	out   json.RawMessage
	err   error
	calls int
	last  domain.ThreadQuery
}

func (m *mockThreads) ListThreads(_ context.Context, q domain.ThreadQuery) (json.RawMessage, error) {
	m.calls++
	m.last = q
	return m.out, m.err
}

type mockSelected struct {
	selected *string
	err      error
	operator string
}

func (m *mockSelected) SelectedBot(_ context.Context, operatorID string) (*string, error) {
	m.operator = operatorID
	return m.selected, m.err
}

func strPtr(s string) *string { return &s }

func mustNewMessagesService(t *testing.T, threads ThreadReader, sel SelectedBotReader) *MessagesService {
	t.Helper()
	svc, err := NewMessagesService(threads, sel, nil, 0, 0)
	require.NoError(t, err)
	return svc
}

func TestNewMessagesService_ValidatesDependencies(t *testing.T) {
	_, err := NewMessagesService(nil, nil, nil, 10, 100)
	require.Error(t, err)
}

func TestNewMessagesService_DefaultNeverExceedsMax(t *testing.T) {
	svc, err := NewMessagesService(&mockThreads{}, nil, nil, 50, 20)
	require.NoError(t, err)
	require.Equal(t, 20, svc.defaultSize)
}

func TestListMessages_PassesThroughPayload(t *testing.T) {
	threads := &mockThreads{out: json.RawMessage(`{"threads":[{"id":"t1","messages":[]}],"cursor":"c2"}`)}
	svc := mustNewMessagesService(t, threads, nil)

	raw, err := svc.ListMessages(context.Background(), ListMessagesInput{
		BotID:  " bot_1 ",
		Cursor: "c1",
		Limit:  "25",
		Date:   "2026-10-01",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"threads":[{"id":"t1","messages":[]}],"cursor":"c2"}`, string(raw))
	require.Equal(t, domain.ThreadQuery{BotID: "bot_1", Cursor: "c1", Limit: 25, Date: "2026-10-01"}, threads.last)
}

func TestListMessages_MalformedLimitFallsBackToDefault(t *testing.T) {
	for _, raw := range []string{"", "abc", "NaN", "0", "-3", "1.5", "10abc"} {
		t.Run(raw, func(t *testing.T) {
			threads := &mockThreads{out: json.RawMessage(`[]`)}
			svc := mustNewMessagesService(t, threads, nil)

			_, err := svc.ListMessages(context.Background(), ListMessagesInput{Limit: raw})
			require.NoError(t, err)
			require.Equal(t, 10, threads.last.Limit)
		})
	}
}

func TestListMessages_LimitClampedToMax(t *testing.T) {
	threads := &mockThreads{out: json.RawMessage(`[]`)}
	svc := mustNewMessagesService(t, threads, nil)

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{Limit: "5000"})
	require.NoError(t, err)
	require.Equal(t, DefaultMaxPage, threads.last.Limit)
}

func TestListMessages_FallsBackToSelectedBot(t *testing.T) {
	threads := &mockThreads{out: json.RawMessage(`[]`)}
	sel := &mockSelected{selected: strPtr("bot_42")}
	svc := mustNewMessagesService(t, threads, sel)

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{OperatorID: "op-1"})
	require.NoError(t, err)
	require.Equal(t, "bot_42", threads.last.BotID)
	require.Equal(t, "op-1", sel.operator)
}

func TestListMessages_ExplicitBotWinsOverSelection(t *testing.T) {
	threads := &mockThreads{out: json.RawMessage(`[]`)}
	sel := &mockSelected{selected: strPtr("bot_42")}
	svc := mustNewMessagesService(t, threads, sel)

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{OperatorID: "op-1", BotID: "bot_1"})
	require.NoError(t, err)
	require.Equal(t, "bot_1", threads.last.BotID)
	require.Empty(t, sel.operator)
}

func newOwnedMessagesService(t *testing.T, threads ThreadReader, bots BotGetter) *MessagesService {
	t.Helper()
	svc, err := NewMessagesService(threads, nil, bots, 0, 0)
	require.NoError(t, err)
	return svc
}

func TestListMessages_ExplicitBotOfTenantIsForwarded(t *testing.T) {
	threads := &mockThreads{out: json.RawMessage(`[]`)}
	svc := newOwnedMessagesService(t, threads, newMockBots(domain.Bot{ID: "bot_1", TenantID: "t1"}))

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{TenantID: "t1", BotID: "bot_1"})
	require.NoError(t, err)
	require.Equal(t, "bot_1", threads.last.BotID)
}

func TestListMessages_ExplicitBotOfOtherTenantIsRejected(t *testing.T) {
	threads := &mockThreads{}
	svc := newOwnedMessagesService(t, threads, newMockBots(domain.Bot{ID: "bot_1", TenantID: "t2"}))

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{TenantID: "t1", BotID: "bot_1"})
	require.Equal(t, ErrorNotFound, CodeOf(err))
	require.Zero(t, threads.calls)
}

func TestListMessages_ExplicitBotWithoutTenantIsRejected(t *testing.T) {
	threads := &mockThreads{}
	svc := newOwnedMessagesService(t, threads, newMockBots())

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{BotID: "bot_1"})
	require.Equal(t, ErrorInvalidInput, CodeOf(err))
	require.Zero(t, threads.calls)
}

func TestListMessages_BotLookupErrorIsInternal(t *testing.T) {
	threads := &mockThreads{}
	bots := newMockBots()
	bots.getErr = errors.New("throttled")
	svc := newOwnedMessagesService(t, threads, bots)

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{TenantID: "t1", BotID: "bot_1"})
	require.Equal(t, ErrorInternal, CodeOf(err))
	require.Zero(t, threads.calls)
}

func TestListMessages_NoSelectionForwardsUnfiltered(t *testing.T) {
	threads := &mockThreads{out: json.RawMessage(`[]`)}
	svc := mustNewMessagesService(t, threads, &mockSelected{})

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{OperatorID: "op-1"})
	require.NoError(t, err)
	require.Empty(t, threads.last.BotID)
}

func TestListMessages_SelectionErrorIsInternal(t *testing.T) {
	threads := &mockThreads{}
	svc := mustNewMessagesService(t, threads, &mockSelected{err: errors.New("dynamo down")})

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{OperatorID: "op-1"})
	require.Error(t, err)
	require.Equal(t, ErrorInternal, CodeOf(err))
	require.Zero(t, threads.calls)
}

func TestListMessages_ThreadServiceErrorIsUpstream(t *testing.T) {
	threads := &mockThreads{err: errors.New("connection refused")}
	svc := mustNewMessagesService(t, threads, nil)

	_, err := svc.ListMessages(context.Background(), ListMessagesInput{})
	require.Error(t, err)

	var ue *Error
	require.True(t, errors.As(err, &ue))
	require.Equal(t, ErrorUpstream, ue.Code)
	require.Equal(t, "thread_service_error", ue.Reason)
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 10},
		{"x", 10},
		{"0", 10},
		{"-1", 10},
		{" 7 ", 7},
		{"100", 100},
		{"101", 100},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseLimit(tc.raw, 10, 100), "raw=%q", tc.raw)
	}
	require.Equal(t, 5000, ParseLimit("5000", 10, 0))
}
