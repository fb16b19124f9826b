package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"chatbot-dashboard/internal/domain"
	"chatbot-dashboard/internal/usecase"
)

type botRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type botsResponse struct {
	Bots []domain.Bot `json:"bots"`
}

func (h *Handler) listBots(ctx context.Context, req request) events.APIGatewayProxyResponse {
	bots, err := h.bots.ListBots(ctx, req.tenantID)
	if err != nil {
		return useCaseError(req, err)
	}
	return jsonResponse(http.StatusOK, botsResponse{Bots: bots})
}

func (h *Handler) getBot(ctx context.Context, req request, botID string) events.APIGatewayProxyResponse {
	bot, err := h.bots.GetBot(ctx, req.tenantID, botID)
	if err != nil {
		return useCaseError(req, err)
	}
	return jsonResponse(http.StatusOK, bot)
}

func (h *Handler) createBot(ctx context.Context, req request) events.APIGatewayProxyResponse {
	var body botRequest
	if err := decodeBody(req.event, &body); err != nil {
		return errorJSON(http.StatusBadRequest, string(usecase.ErrorInvalidInput))
	}
	bot, err := h.bots.CreateBot(ctx, req.tenantID, usecase.BotInput{Name: body.Name, Description: body.Description})
	if err != nil {
		return useCaseError(req, err)
	}
	return jsonResponse(http.StatusCreated, bot)
}

func (h *Handler) updateBot(ctx context.Context, req request, botID string) events.APIGatewayProxyResponse {
	var body botRequest
	if err := decodeBody(req.event, &body); err != nil {
		return errorJSON(http.StatusBadRequest, string(usecase.ErrorInvalidInput))
	}
	bot, err := h.bots.UpdateBot(ctx, req.tenantID, botID, usecase.BotInput{Name: body.Name, Description: body.Description})
	if err != nil {
		return useCaseError(req, err)
	}
	return jsonResponse(http.StatusOK, bot)
}

func (h *Handler) deleteBot(ctx context.Context, req request, botID string) events.APIGatewayProxyResponse {
	if err := h.bots.DeleteBot(ctx, req.tenantID, req.operatorID, botID); err != nil {
		return useCaseError(req, err)
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}
}
