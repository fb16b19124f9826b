package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"chatbot-dashboard/internal/usecase"
)

// fetchMessagesFailed is the only body ever returned for a failed messages
// read; the cause is logged, not sent. Rejected input is answered with the
// regular error envelope.
const fetchMessagesFailed = `{"error":"Failed to fetch messages"}`

// listMessages handles GET /api/messages?bot=&cursor=&limit=&date=.
func (h *Handler) listMessages(ctx context.Context, req request) events.APIGatewayProxyResponse {
	q := req.event.QueryStringParameters
	raw, err := h.messages.ListMessages(ctx, usecase.ListMessagesInput{
		TenantID:   req.tenantID,
		OperatorID: req.operatorID,
		BotID:      q["bot"],
		Cursor:     q["cursor"],
		Limit:      q["limit"],
		Date:       q["date"],
	})
	if err != nil {
		switch usecase.CodeOf(err) {
		case usecase.ErrorInvalidInput, usecase.ErrorNotFound:
			return useCaseError(req, err)
		}
		slog.Error("failed to fetch messages",
			"correlation_id", req.correlationID,
			"bot", q["bot"],
			"err", err,
		)
		return rawJSON(http.StatusInternalServerError, fetchMessagesFailed)
	}
	return rawJSON(http.StatusOK, string(raw))
}
