package operation

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fortest/myorders/internal/db"
)

type HealthOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// RegisterHealthRoute exposes /health. With a nil pinger only liveness is
// reported.
func RegisterHealthRoute(api huma.API, pinger db.Pinger) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Summary:     "Health check endpoint",
		Method:      http.MethodGet,
		Path:        "/health",
		Tags:        []string{"health"},
	}, func(ctx context.Context, input *struct{}) (*HealthOutput, error) {
		if pinger != nil {
			if err := db.Ready(ctx, pinger); err != nil {
				return nil, huma.Error503ServiceUnavailable("database unreachable", err)
			}
		}
		resp := &HealthOutput{}
		resp.Body.Status = "ok"
		return resp, nil
	})
}
