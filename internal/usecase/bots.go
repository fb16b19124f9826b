package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"chatbot-dashboard/internal/domain"
	"chatbot-dashboard/internal/repository"
)

const (
	maxBotNameLen        = 100
	maxBotDescriptionLen = 500
)

type BotStore interface {
	ListBots(ctx context.Context, tenantID string) ([]domain.Bot, error)
	GetBot(ctx context.Context, tenantID, botID string) (domain.Bot, bool, error)
	CreateBot(ctx context.Context, bot domain.Bot) error
	UpdateBot(ctx context.Context, bot domain.Bot) error
	DeleteBot(ctx context.Context, tenantID, botID string) error
}

// SelectionClearer drops stale selections after a bot is deleted.
type SelectionClearer interface {
	ClearIfSelected(ctx context.Context, operatorID, botID string) error
}

type BotService struct {
	store     BotStore
	selection SelectionClearer
}

type BotInput struct {
	Name        string
	Description string
}

func NewBotService(store BotStore, selection SelectionClearer) (*BotService, error) {
	if store == nil {
		return nil, errors.New("usecase: bot store must not be nil")
	}
	return &BotService{store: store, selection: selection}, nil
}

func (s *BotService) ListBots(ctx context.Context, tenantID string) ([]domain.Bot, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, newError(ErrorInvalidInput, "missing_tenant", nil)
	}
	bots, err := s.store.ListBots(ctx, tenantID)
	if err != nil {
		return nil, newError(ErrorInternal, "dynamodb_list_bots_error", err)
	}
	if bots == nil {
		bots = []domain.Bot{}
	}
	return bots, nil
}

func (s *BotService) GetBot(ctx context.Context, tenantID, botID string) (domain.Bot, error) {
	if strings.TrimSpace(tenantID) == "" {
		return domain.Bot{}, newError(ErrorInvalidInput, "missing_tenant", nil)
	}
	bot, ok, err := s.store.GetBot(ctx, tenantID, strings.TrimSpace(botID))
	if err != nil {
		return domain.Bot{}, newError(ErrorInternal, "dynamodb_get_bot_error", err)
	}
	if !ok {
		return domain.Bot{}, newError(ErrorNotFound, "bot_not_found", nil)
	}
	return bot, nil
}

func (s *BotService) CreateBot(ctx context.Context, tenantID string, in BotInput) (domain.Bot, error) {
	if strings.TrimSpace(tenantID) == "" {
		return domain.Bot{}, newError(ErrorInvalidInput, "missing_tenant", nil)
	}
	in, err := validateBotInput(in)
	if err != nil {
		return domain.Bot{}, err
	}

	now := nowUTC().Format(time.RFC3339)
	bot := domain.Bot{
		ID:          newUUID(),
		TenantID:    tenantID,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateBot(ctx, bot); err != nil {
		return domain.Bot{}, newError(ErrorInternal, "dynamodb_create_bot_error", err)
	}
	return bot, nil
}

func (s *BotService) UpdateBot(ctx context.Context, tenantID, botID string, in BotInput) (domain.Bot, error) {
	existing, err := s.GetBot(ctx, tenantID, botID)
	if err != nil {
		return domain.Bot{}, err
	}
	in, err = validateBotInput(in)
	if err != nil {
		return domain.Bot{}, err
	}

	existing.Name = in.Name
	existing.Description = in.Description
	existing.UpdatedAt = nowUTC().Format(time.RFC3339)
	if err := s.store.UpdateBot(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Bot{}, newError(ErrorNotFound, "bot_not_found", nil)
		}
		return domain.Bot{}, newError(ErrorInternal, "dynamodb_update_bot_error", err)
	}
	return existing, nil
}

// DeleteBot removes a bot and clears the deleting operator's selection if it
// pointed at that bot. Once the bot is gone a failed clear is only logged.
func (s *BotService) DeleteBot(ctx context.Context, tenantID, operatorID, botID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return newError(ErrorInvalidInput, "missing_tenant", nil)
	}
	botID = strings.TrimSpace(botID)
	if botID == "" {
		return newError(ErrorInvalidInput, "missing_bot_id", nil)
	}
	if err := s.store.DeleteBot(ctx, tenantID, botID); err != nil {
		return newError(ErrorInternal, "dynamodb_delete_bot_error", err)
	}
	if s.selection != nil {
		if err := s.selection.ClearIfSelected(ctx, operatorID, botID); err != nil {
			slog.Warn("failed to clear selection of deleted bot",
				"operator_id", operatorID,
				"bot_id", botID,
				"err", err,
			)
		}
	}
	return nil
}

func validateBotInput(in BotInput) (BotInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return BotInput{}, newError(ErrorInvalidInput, "empty_bot_name", nil)
	}
	if utf8.RuneCountInString(in.Name) > maxBotNameLen {
		return BotInput{}, newError(ErrorInvalidInput, "bot_name_too_long", nil)
	}
	if utf8.RuneCountInString(in.Description) > maxBotDescriptionLen {
		return BotInput{}, newError(ErrorInvalidInput, "bot_description_too_long", nil)
	}
	return in, nil
}

var newUUID = func() string {
	return uuid.NewString()
}

var nowUTC = func() time.Time {
	return time.Now().UTC()
}
