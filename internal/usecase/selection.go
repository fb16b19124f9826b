package usecase

import (
	"context"
	"errors"
	"strings"

	"chatbot-dashboard/internal/domain"
	"chatbot-dashboard/internal/selection"
)

// SelectionRegistry opens the bound selection store of an operator.
type SelectionRegistry interface {
	Open(ctx context.Context, operatorID string) (*selection.Store, *selection.Binding, error)
}

type BotGetter interface {
	GetBot(ctx context.Context, tenantID, botID string) (domain.Bot, bool, error)
}

type SelectionService struct {
	registry SelectionRegistry
	bots     BotGetter
}

type SelectionOutput struct {
	SelectedBot *string
	Loaded      bool
}

func NewSelectionService(registry SelectionRegistry, bots BotGetter) (*SelectionService, error) {
	if registry == nil {
		return nil, errors.New("usecase: selection registry must not be nil")
	}
	if bots == nil {
		return nil, errors.New("usecase: bot getter must not be nil")
	}
	return &SelectionService{registry: registry, bots: bots}, nil
}

// SelectedBot returns the operator's current selection.
func (s *SelectionService) SelectedBot(ctx context.Context, operatorID string) (*string, error) {
	out, err := s.GetSelection(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	return out.SelectedBot, nil
}

func (s *SelectionService) GetSelection(ctx context.Context, operatorID string) (SelectionOutput, error) {
	if strings.TrimSpace(operatorID) == "" {
		return SelectionOutput{}, newError(ErrorInvalidInput, "missing_operator", nil)
	}
	_, binding, err := s.registry.Open(ctx, operatorID)
	if err != nil {
		return SelectionOutput{}, newError(ErrorInternal, "selection_load_error", err)
	}
	selected, loaded := binding.Current()
	return SelectionOutput{SelectedBot: selected, Loaded: loaded}, nil
}

// SetSelection selects botID for the operator, or clears the selection when
// botID is nil. The bot must belong to the tenant.
func (s *SelectionService) SetSelection(ctx context.Context, tenantID, operatorID string, botID *string) (SelectionOutput, error) {
	if strings.TrimSpace(tenantID) == "" {
		return SelectionOutput{}, newError(ErrorInvalidInput, "missing_tenant", nil)
	}
	if strings.TrimSpace(operatorID) == "" {
		return SelectionOutput{}, newError(ErrorInvalidInput, "missing_operator", nil)
	}

	if botID != nil {
		id := strings.TrimSpace(*botID)
		if id == "" || id == "null" {
			botID = nil
		} else {
			_, ok, err := s.bots.GetBot(ctx, tenantID, id)
			if err != nil {
				return SelectionOutput{}, newError(ErrorInternal, "dynamodb_get_bot_error", err)
			}
			if !ok {
				return SelectionOutput{}, newError(ErrorNotFound, "bot_not_found", nil)
			}
			botID = &id
		}
	}

	store, binding, err := s.registry.Open(ctx, operatorID)
	if err != nil {
		return SelectionOutput{}, newError(ErrorInternal, "selection_load_error", err)
	}
	if err := store.Set(ctx, botID); err != nil {
		return SelectionOutput{}, newError(ErrorInternal, "selection_save_error", err)
	}
	selected, loaded := binding.Current()
	return SelectionOutput{SelectedBot: selected, Loaded: loaded}, nil
}

// ClearIfSelected drops the operator's selection when it points at botID.
func (s *SelectionService) ClearIfSelected(ctx context.Context, operatorID, botID string) error {
	if strings.TrimSpace(operatorID) == "" {
		return nil
	}
	store, binding, err := s.registry.Open(ctx, operatorID)
	if err != nil {
		return newError(ErrorInternal, "selection_load_error", err)
	}
	selected, _ := binding.Current()
	if selected == nil || *selected != botID {
		return nil
	}
	if err := store.Set(ctx, nil); err != nil {
		return newError(ErrorInternal, "selection_save_error", err)
	}
	return nil
}
