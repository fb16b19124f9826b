package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"chatbot-dashboard/internal/usecase"
)

type selectionRequest struct {
	SelectedBot *string `json:"selectedBot"`
}

type selectionResponse struct {
	SelectedBot *string `json:"selectedBot"`
	Loaded      bool    `json:"loaded"`
}

func (h *Handler) getSelection(ctx context.Context, req request) events.APIGatewayProxyResponse {
	out, err := h.selection.GetSelection(ctx, req.operatorID)
	if err != nil {
		return useCaseError(req, err)
	}
	return jsonResponse(http.StatusOK, selectionResponse{SelectedBot: out.SelectedBot, Loaded: out.Loaded})
}

// putSelection accepts {"selectedBot": "<id>"} or {"selectedBot": null}.
func (h *Handler) putSelection(ctx context.Context, req request) events.APIGatewayProxyResponse {
	var body selectionRequest
	if err := decodeBody(req.event, &body); err != nil {
		return errorJSON(http.StatusBadRequest, string(usecase.ErrorInvalidInput))
	}
	out, err := h.selection.SetSelection(ctx, req.tenantID, req.operatorID, body.SelectedBot)
	if err != nil {
		return useCaseError(req, err)
	}
	return jsonResponse(http.StatusOK, selectionResponse{SelectedBot: out.SelectedBot, Loaded: out.Loaded})
}
