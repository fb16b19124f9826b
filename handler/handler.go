package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"chatbot-dashboard/internal/domain"
	"chatbot-dashboard/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	tenantHeader      = "X-Tenant-Id"
	operatorHeader    = "X-Operator-Id"

	// maxBodyBytes bounds decoded JSON request bodies.
	maxBodyBytes = 64 << 10
)

type MessagesLister interface {
	ListMessages(ctx context.Context, in usecase.ListMessagesInput) (json.RawMessage, error)
}

type BotManager interface {
	ListBots(ctx context.Context, tenantID string) ([]domain.Bot, error)
	GetBot(ctx context.Context, tenantID, botID string) (domain.Bot, error)
	CreateBot(ctx context.Context, tenantID string, in usecase.BotInput) (domain.Bot, error)
	UpdateBot(ctx context.Context, tenantID, botID string, in usecase.BotInput) (domain.Bot, error)
	DeleteBot(ctx context.Context, tenantID, operatorID, botID string) error
}

type SelectionManager interface {
	GetSelection(ctx context.Context, operatorID string) (usecase.SelectionOutput, error)
	SetSelection(ctx context.Context, tenantID, operatorID string, botID *string) (usecase.SelectionOutput, error)
}

// Handler serves the dashboard API behind an API Gateway proxy integration.
type Handler struct {
	messages  MessagesLister
	bots      BotManager
	selection SelectionManager
}

type errorResponse struct {
	Error string `json:"error"`
}

// request is the per-invocation view shared by the route handlers.
type request struct {
	event         events.APIGatewayProxyRequest
	correlationID string
	tenantID      string
	operatorID    string
}

func NewHandler(messages MessagesLister, bots BotManager, selection SelectionManager) (*Handler, error) {
	if messages == nil {
		return nil, errors.New("handler: messages lister must not be nil")
	}
	if bots == nil {
		return nil, errors.New("handler: bot manager must not be nil")
	}
	if selection == nil {
		return nil, errors.New("handler: selection manager must not be nil")
	}
	return &Handler{messages: messages, bots: bots, selection: selection}, nil
}

// Handle is the Lambda entrypoint. It never returns an error; every failure
// is rendered as an HTTP response.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req := request{
		event:         event,
		correlationID: correlationID(event),
		tenantID:      identity(event, "tenantId", tenantHeader),
		operatorID:    identity(event, "operatorId", operatorHeader),
	}

	resp := h.route(ctx, req)
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	resp.Headers[correlationHeader] = req.correlationID

	slog.Info("request handled",
		"correlation_id", req.correlationID,
		"method", event.HTTPMethod,
		"path", event.Path,
		"status", resp.StatusCode,
	)
	return resp, nil
}

func (h *Handler) route(ctx context.Context, req request) events.APIGatewayProxyResponse {
	path := strings.TrimRight(req.event.Path, "/")
	method := req.event.HTTPMethod

	switch {
	case path == "/healthz":
		if method != http.MethodGet {
			return methodNotAllowed()
		}
		return jsonResponse(http.StatusOK, map[string]string{"status": "ok"})

	case path == "/api/messages":
		if method != http.MethodGet {
			return methodNotAllowed()
		}
		return h.listMessages(ctx, req)

	case path == "/api/selection":
		switch method {
		case http.MethodGet:
			return h.getSelection(ctx, req)
		case http.MethodPut:
			return h.putSelection(ctx, req)
		}
		return methodNotAllowed()

	case path == "/api/bots":
		switch method {
		case http.MethodGet:
			return h.listBots(ctx, req)
		case http.MethodPost:
			return h.createBot(ctx, req)
		}
		return methodNotAllowed()

	case strings.HasPrefix(path, "/api/bots/"):
		botID := strings.TrimPrefix(path, "/api/bots/")
		if botID == "" || strings.Contains(botID, "/") {
			return errorJSON(http.StatusNotFound, string(usecase.ErrorNotFound))
		}
		switch method {
		case http.MethodGet:
			return h.getBot(ctx, req, botID)
		case http.MethodPut:
			return h.updateBot(ctx, req, botID)
		case http.MethodDelete:
			return h.deleteBot(ctx, req, botID)
		}
		return methodNotAllowed()
	}
	return errorJSON(http.StatusNotFound, string(usecase.ErrorNotFound))
}

// useCaseError maps a usecase error to a response, logging anything that is
// the server's fault.
func useCaseError(req request, err error) events.APIGatewayProxyResponse {
	code := usecase.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"correlation_id", req.correlationID,
			"path", req.event.Path,
			"code", code,
			"err", err,
		)
	}
	return errorJSON(status, string(code))
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(event events.APIGatewayProxyRequest, v any) error {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return err
		}
		body = decoded
	}
	if len(body) > maxBodyBytes {
		return errors.New("body too large")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "err", err)
		return rawJSON(http.StatusInternalServerError, `{"error":"INTERNAL_ERROR"}`)
	}
	return rawJSON(status, string(b))
}

func rawJSON(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func errorJSON(status int, msg string) events.APIGatewayProxyResponse {
	return jsonResponse(status, errorResponse{Error: msg})
}

func methodNotAllowed() events.APIGatewayProxyResponse {
	return errorJSON(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func header(event events.APIGatewayProxyRequest, name string) string {
	for k, v := range event.Headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func correlationID(event events.APIGatewayProxyRequest) string {
	if id := header(event, correlationHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

// identity prefers the authorizer context and falls back to a header, which
// is what the local development server forwards.
func identity(event events.APIGatewayProxyRequest, authorizerKey, headerName string) string {
	if v, ok := event.RequestContext.Authorizer[authorizerKey].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return header(event, headerName)
}
