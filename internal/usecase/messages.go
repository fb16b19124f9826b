package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"chatbot-dashboard/internal/domain"
)

const (
	DefaultPageSize = 10
	DefaultMaxPage  = 100
)

type ThreadReader interface {
	ListThreads(ctx context.Context, q domain.ThreadQuery) (json.RawMessage, error)
}

// SelectedBotReader resolves an operator's selected bot. A nil result means
// no selection.
type SelectedBotReader interface {
	SelectedBot(ctx context.Context, operatorID string) (*string, error)
}

type MessagesService struct {
	threads     ThreadReader
	selection   SelectedBotReader
	bots        BotGetter
	defaultSize int
	maxSize     int
}

// ListMessagesInput holds the raw query values of a messages request.
type ListMessagesInput struct {
	TenantID   string
	OperatorID string
	BotID      string
	Cursor     string
	Limit      string
	Date       string
}

// NewMessagesService builds the messages read path. selection may be nil, in
// which case requests without a bot are forwarded unfiltered. bots may be nil,
// in which case an explicit bot is forwarded without an ownership check.
func NewMessagesService(threads ThreadReader, selection SelectedBotReader, bots BotGetter, defaultSize, maxSize int) (*MessagesService, error) {
	if threads == nil {
		return nil, errors.New("usecase: thread reader must not be nil")
	}
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxPage
	}
	if defaultSize > maxSize {
		defaultSize = maxSize
	}
	return &MessagesService{
		threads:     threads,
		selection:   selection,
		bots:        bots,
		defaultSize: defaultSize,
		maxSize:     maxSize,
	}, nil
}

// ListMessages forwards one page request to the thread service and returns
// its payload untouched.
func (s *MessagesService) ListMessages(ctx context.Context, in ListMessagesInput) (json.RawMessage, error) {
	q := domain.ThreadQuery{
		BotID:  strings.TrimSpace(in.BotID),
		Cursor: strings.TrimSpace(in.Cursor),
		Limit:  ParseLimit(in.Limit, s.defaultSize, s.maxSize),
		Date:   strings.TrimSpace(in.Date),
	}

	if q.BotID != "" {
		if err := s.checkOwnership(ctx, in.TenantID, q.BotID); err != nil {
			return nil, err
		}
	} else if s.selection != nil && strings.TrimSpace(in.OperatorID) != "" {
		selected, err := s.selection.SelectedBot(ctx, in.OperatorID)
		if err != nil {
			return nil, newError(ErrorInternal, "selection_load_error", err)
		}
		if selected != nil {
			q.BotID = *selected
		}
	}

	raw, err := s.threads.ListThreads(ctx, q)
	if err != nil {
		return nil, newError(ErrorUpstream, "thread_service_error", err)
	}
	return raw, nil
}

// checkOwnership rejects a bot that does not belong to the tenant.
func (s *MessagesService) checkOwnership(ctx context.Context, tenantID, botID string) error {
	if s.bots == nil {
		return nil
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return newError(ErrorInvalidInput, "missing_tenant", nil)
	}
	_, ok, err := s.bots.GetBot(ctx, tenantID, botID)
	if err != nil {
		return newError(ErrorInternal, "dynamodb_get_bot_error", err)
	}
	if !ok {
		return newError(ErrorNotFound, "bot_not_found", nil)
	}
	return nil
}

// ParseLimit turns a raw page-size value into a usable limit. Missing,
// non-numeric and non-positive values yield def; values above max are
// clamped.
func ParseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}
