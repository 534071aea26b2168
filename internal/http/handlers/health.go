package handlers

import (
	"context"
	"net/http"
	"time"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "mediahub"

type pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Plans   int    `json:"plans"`
	Usage   string `json:"usage_store,omitempty"`
}

// Health reports liveness plus the reachability of the usage store when the
// store can be pinged. An unreachable store answers 503 so load balancers
// drain the instance.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Service: ServiceName, Status: "ok", Plans: len(a.Resolver.Registry().All())}
	code := http.StatusOK
	if p, ok := a.Usage.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		resp.Usage = "ok"
		if err := p.Ping(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("health: usage store unreachable")
			resp.Status, resp.Usage = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	a.json(w, code, resp)
}
