package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"
)

// NewRouter exposes the Lambda handler over plain HTTP for local
// development. Requests are translated into API Gateway proxy events so both
// entrypoints share one code path.
func NewRouter(h *Handler) *mux.Router {
	fwd := proxyAdapter{h: h}

	r := mux.NewRouter()
	r.Handle("/healthz", fwd).Methods(http.MethodGet)
	r.Handle("/api/messages", fwd).Methods(http.MethodGet)
	r.Handle("/api/selection", fwd).Methods(http.MethodGet, http.MethodPut)
	r.Handle("/api/bots", fwd).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/api/bots/{id}", fwd).Methods(http.MethodGet, http.MethodPut, http.MethodDelete)

	// Let the handler render its own JSON 404/405 bodies.
	r.NotFoundHandler = fwd
	r.MethodNotAllowedHandler = fwd
	return r
}

type proxyAdapter struct {
	h *Handler
}

func (a proxyAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		slog.Error("failed to read request body", "err", err)
		http.Error(w, `{"error":"INVALID_INPUT"}`, http.StatusBadRequest)
		return
	}

	resp, _ := a.h.Handle(r.Context(), toProxyRequest(r, string(body)))

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = io.WriteString(w, resp.Body)
	}
}

func toProxyRequest(r *http.Request, body string) events.APIGatewayProxyRequest {
	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	query := r.URL.Query()
	params := make(map[string]string, len(query))
	for k, v := range query {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	return events.APIGatewayProxyRequest{
		HTTPMethod:                      r.Method,
		Path:                            r.URL.Path,
		Headers:                         headers,
		MultiValueHeaders:               r.Header,
		QueryStringParameters:           params,
		MultiValueQueryStringParameters: query,
		PathParameters:                  mux.Vars(r),
		Body:                            body,
	}
}
