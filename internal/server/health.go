package server

import (
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
)

// CapabilityServicePrefix prefixes the per-capability gRPC health service names.
const CapabilityServicePrefix = "docintake.capability."

// NewHealthServer returns a gRPC health server reflecting caps.
func NewHealthServer(caps capability.Set) *health.Server {
	hs := health.NewServer()
	UpdateHealth(hs, caps)
	return hs
}

// UpdateHealth marks the overall service SERVING and each capability
// SERVING or NOT_SERVING.
func UpdateHealth(hs *health.Server, caps capability.Set) {
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, c := range constants.AllCapabilities() {
		st := healthpb.HealthCheckResponse_NOT_SERVING
		if caps.Has(c) {
			st = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus(CapabilityServicePrefix+string(c), st)
	}
}
