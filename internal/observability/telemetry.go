package observability

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

var (
	// TelemetrySystem is the global telemetry system. Nil until InitMetrics
	// runs; metric helpers in internal/metrics tolerate a nil system.
	TelemetrySystem *telemetry.System

	// PrometheusExporter serves the metrics endpoint.
	PrometheusExporter *exporters.PrometheusExporter
)

// DisableTelemetry installs a disabled telemetry system. Called early in CLI
// startup so config loading never emits metrics to stdout.
func DisableTelemetry() {
	cfg := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(cfg); err == nil {
		telemetry.SetGlobalSystem(sys)
	}
}

// InitMetrics starts the Prometheus exporter and wires the telemetry system.
func InitMetrics(serviceName string, port int) error {
	if port < 0 {
		port = 0
	}

	PrometheusExporter = exporters.NewPrometheusExporter(serviceName, fmt.Sprintf(":%d", port))
	if err := PrometheusExporter.Start(); err != nil {
		return err
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: PrometheusExporter,
	})
	if err != nil {
		return err
	}
	TelemetrySystem = sys
	return nil
}
