package endpoints

import "github.com/jackzampolin/booklet/internal/api"

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Build endpoints
		&AssembleEndpoint{},
		&EstimateEndpoint{},

		&MetricsEndpoint{},
	}
}
