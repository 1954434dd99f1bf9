package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/begillespie/pilight/internal/led"
)

// SetRequest is the body of POST /set.
type SetRequest struct {
	Body struct {
		Token string `json:"token" doc:"Shared secret"`
		Value string `json:"value" example:"rgb 255 0 0" doc:"Command: rgb r g b, a CSS keyword, #rrggbb, help, status, stop or about"`
	}
}

// SetResponse carries the text the command produced.
type SetResponse struct {
	Body struct {
		Result string `json:"result" example:"Set RGB (255, 0, 0)" doc:"Command output"`
	}
}

type StatusResponse struct {
	Body led.Snapshot
}

type HealthResponse struct {
	Body struct {
		Status string `json:"status" example:"ok"`
		State  string `json:"state" example:"ready"`
	}
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "run-command",
		Method:      http.MethodPost,
		Path:        "/set",
		Summary:     "Run a command",
		Description: "Runs one LED command. Errors in the command itself are returned as text in the result.",
		Tags:        []string{"led"},
		Errors:      []int{401, 422},
	}, func(ctx context.Context, input *SetRequest) (*SetResponse, error) {
		if !s.validToken(input.Body.Token) {
			log.Warn().Msg("rejected command with invalid token")
			return nil, huma.Error401Unauthorized("invalid user token")
		}
		resp := &SetResponse{}
		resp.Body.Result = s.opts.Executor.Execute(input.Body.Value)
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "LED status",
		Tags:        []string{"led"},
		Errors:      []int{503},
	}, func(ctx context.Context, input *struct{}) (*StatusResponse, error) {
		if s.opts.Snapshot == nil {
			return nil, huma.Error503ServiceUnavailable("status not available")
		}
		return &StatusResponse{Body: s.opts.Snapshot()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*HealthResponse, error) {
		resp := &HealthResponse{}
		resp.Body.Status = "ok"
		resp.Body.State = "unknown"
		if s.opts.Snapshot != nil {
			resp.Body.State = s.opts.Snapshot().State
		}
		return resp, nil
	})
}
