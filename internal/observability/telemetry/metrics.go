package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas de negócio
	VoiceSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrovoz_voice_sessions_total",
		Help: "Sessões de voz finalizadas, por estado final e motivo",
	}, []string{"state", "reason"})

	VoiceOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrovoz_voice_operations_total",
		Help: "Operações propostas executadas pelo executor de voz",
	}, []string{"type", "operation", "status"})

	VoiceProcessingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agrovoz_voice_processing_seconds",
		Help:    "Latência da transcrição e extração de intenções",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
	}, []string{"provider", "status"})

	VoiceTokensUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrovoz_voice_tokens_total",
		Help: "Tokens consumidos pelo serviço de extração",
	}, []string{"provider"})

	RecordWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrovoz_record_writes_total",
		Help: "Escritas de registros da fazenda",
	}, []string{"entity", "action"})

	// Métricas de infraestrutura
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agrovoz_http_request_duration_seconds",
		Help:    "Latência das requisições HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	GRPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrovoz_grpc_requests_total",
		Help: "Total de chamadas gRPC",
	}, []string{"method", "code"})

	WebsocketConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agrovoz_websocket_connections",
		Help: "Conexões websocket abertas",
	}, []string{"channel"})
)
