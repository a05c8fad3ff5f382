package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"contact-list/app"
)

var (
	application *app.App
	httpHandler http.Handler
)

func apiGatewayHandler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	httpReq, err := toHTTPRequest(ctx, req)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request")
	}
	w := newProxyResponseWriter()
	httpHandler.ServeHTTP(w, httpReq)
	return w.response(), nil
}

func eventBridgeHandler(ctx context.Context, event events.CloudWatchEvent) (string, error) {
	application.Log.Info("EventBridge triggered contact snapshot", "source", event.Source)

	key, err := application.Snapshot(ctx)
	if err != nil {
		application.Log.Error("contact snapshot failed", "error", err)
		return "Failed to archive contacts", err
	}
	return "Contact snapshot archived to " + key, nil
}

func handler(ctx context.Context, rawEvent json.RawMessage) (interface{}, error) {
	// Try to unmarshal as API Gateway event
	var apiReq events.APIGatewayProxyRequest
	if err := json.Unmarshal(rawEvent, &apiReq); err == nil && apiReq.HTTPMethod != "" {
		return apiGatewayHandler(ctx, apiReq)
	}

	// Try to unmarshal as EventBridge event
	var ebEvent events.CloudWatchEvent
	if err := json.Unmarshal(rawEvent, &ebEvent); err == nil && ebEvent.Source != "" {
		return eventBridgeHandler(ctx, ebEvent)
	}

	application.Log.Warn("unknown event format")
	return nil, fmt.Errorf("unsupported event format")
}

func toHTTPRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		body = decoded
	}

	query := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}
	target := url.URL{Path: req.Path, RawQuery: query.Encode()}

	httpReq, err := http.NewRequestWithContext(ctx, req.HTTPMethod, target.RequestURI(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range req.MultiValueHeaders {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, v := range req.Headers {
		if httpReq.Header.Get(k) == "" {
			httpReq.Header.Set(k, v)
		}
	}
	if ip := req.RequestContext.Identity.SourceIP; ip != "" {
		httpReq.RemoteAddr = ip + ":0"
	}
	return httpReq, nil
}

// proxyResponseWriter collects a handler's response for API Gateway.
type proxyResponseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newProxyResponseWriter() *proxyResponseWriter {
	return &proxyResponseWriter{header: http.Header{}}
}

func (w *proxyResponseWriter) Header() http.Header { return w.header }

func (w *proxyResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *proxyResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *proxyResponseWriter) response() events.APIGatewayProxyResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	// API Gateway merges Headers into MultiValueHeaders, so only the latter is set.
	return events.APIGatewayProxyResponse{
		StatusCode:        status,
		MultiValueHeaders: w.header,
		Body:              w.body.String(),
	}
}

func errorResponse(status int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"error": message,
	})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(body),
	}, nil
}

func main() {
	var err error
	application, err = app.Start(os.Getenv("CONFIG_FILE"), os.Stderr)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	httpHandler = application.Handler()
	lambda.Start(handler)
}
