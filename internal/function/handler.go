// Package function adapts the mail flow to the AWS Lambda invocation model.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shineum/s3-mail-sender/internal/flow"
)

// Executor runs the mail flow once.
type Executor interface {
	Execute(ctx context.Context) (*flow.Result, error)
}

// Response is the envelope returned to the Lambda runtime.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type responseBody struct {
	Message string `json:"message"`
	*flow.Result
}

// Handler is the Lambda handler signature. The event payload is ignored.
type Handler func(ctx context.Context, event json.RawMessage) (Response, error)

// NewHandler returns a Handler that runs exec on every invocation.
// Failures are logged and returned unchanged so the runtime reports them.
func NewHandler(exec Executor) Handler {
	return func(ctx context.Context, _ json.RawMessage) (Response, error) {
		result, err := exec.Execute(ctx)
		if err != nil {
			slog.Error("mail flow failed", "error", err)
			return Response{}, err
		}

		body, err := json.Marshal(responseBody{Message: "Success", Result: result})
		if err != nil {
			return Response{}, fmt.Errorf("failed to encode response: %w", err)
		}

		return Response{StatusCode: 200, Body: string(body)}, nil
	}
}
