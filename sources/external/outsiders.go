package external

import (
	"fmt"
	"net/http"
	"musegate/sources/configuration"
	"musegate/sources/platform"
	"musegate/sources/repository"
	"musegate/sources/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outsiders are the operational HTTP surfaces: health probe, runtime metrics
// and application metrics. They live on separate ports so the metrics ports
// can stay private while the health port is exposed to the orchestrator.
type Outsiders struct {
	log    *tracing.Logger
	health *repository.HealthRepository
	ss     *http.Server
	sms    *http.Server
	as     *http.Server
}

func NewOutsiders(log *tracing.Logger, config *configuration.Config, health *repository.HealthRepository) *Outsiders {
	systemRegistry := prometheus.NewRegistry()

	systemRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)

	x := &Outsiders{log: log, health: health}

	x.ss = &http.Server{
		Addr: fmt.Sprintf(":%d", config.Service.StartupPort),
		Handler: platform.Curry(http.NewServeMux, func(m *http.ServeMux) {
			m.HandleFunc("/health", x.healthHandler)
		}),
	}
	x.sms = &http.Server{
		Addr: fmt.Sprintf(":%d", config.Service.SystemMetricsPort),
		Handler: platform.Curry(http.NewServeMux, func(m *http.ServeMux) {
			m.Handle("/metrics", promhttp.HandlerFor(systemRegistry, promhttp.HandlerOpts{}))
		}),
	}
	x.as = &http.Server{
		Addr: fmt.Sprintf(":%d", config.Service.ApplicationMetricsPort),
		Handler: platform.Curry(http.NewServeMux, func(m *http.ServeMux) {
			m.Handle("/metrics", promhttp.Handler())
		}),
	}

	return x
}

func (x *Outsiders) startup() {
	x.log.I("Startup server is starting", tracing.OutsiderKind, "startup", "addr", x.ss.Addr)

	if err := x.ss.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		x.log.F("Failed to start startup server", tracing.OutsiderKind, "startup", tracing.InnerError, err)
	}
}

func (x *Outsiders) systemMetrics() {
	x.log.I("System metrics server is starting", tracing.OutsiderKind, "system_metrics", "addr", x.sms.Addr)

	if err := x.sms.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		x.log.F("Failed to start system metrics server", tracing.OutsiderKind, "system_metrics", tracing.InnerError, err)
	}
}

func (x *Outsiders) applicationMetrics() {
	x.log.I("Application metrics server is starting", tracing.OutsiderKind, "application_metrics", "addr", x.as.Addr)

	if err := x.as.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		x.log.F("Failed to start application metrics server", tracing.OutsiderKind, "application_metrics", tracing.InnerError, err)
	}
}

func (x *Outsiders) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := x.health.CheckDatabaseHealth(x.log); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","component":"database"}`))
		return
	}
	if err := x.health.CheckRedisHealth(x.log); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","component":"redis"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"musegate"}`))
}
