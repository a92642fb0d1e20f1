package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas de conversa
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "armvoice_intents_total",
		Help: "Total de intents processados por resultado",
	}, []string{"intent", "outcome"})

	PipelineLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "armvoice_pipeline_latency_seconds",
		Help:    "Latência do pipeline connect/build/send por intent",
		Buckets: prometheus.DefBuckets,
	}, []string{"intent"})

	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "armvoice_webhook_requests_total",
		Help: "Total de requisições de fulfillment recebidas",
	}, []string{"status"})

	// Métricas de dispositivo
	DeviceCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "armvoice_device_commands_total",
		Help: "Total de comandos enviados ao braço",
	}, []string{"key", "status"})

	DeviceSendLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "armvoice_device_send_latency_seconds",
		Help:    "Latência de publicação no transporte do dispositivo",
		Buckets: prometheus.DefBuckets,
	})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "armvoice_circuit_breaker_state",
		Help: "Estado do circuit breaker (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	// Métricas de infraestrutura
	DatabaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "armvoice_database_latency_seconds",
		Help:    "Latência de queries no banco",
		Buckets: prometheus.DefBuckets,
	})
)
