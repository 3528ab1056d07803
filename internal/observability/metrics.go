package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for VaultLedger.
type Metrics struct {
	// --- Engine ---
	OpsApplied     *prometheus.CounterVec
	OpsRejected    *prometheus.CounterVec
	OpDuration     *prometheus.HistogramVec
	Deposits       prometheus.Counter
	Withdrawals    prometheus.Counter
	TotalValueHeld prometheus.Gauge

	// --- Oracle ---
	OracleRate     prometheus.Gauge
	OracleFailures *prometheus.CounterVec

	// --- Conversion ---
	Conversions        prometheus.Counter
	ConversionFailures prometheus.Counter

	// --- Ingestion & Idempotency ---
	OpsIngested           *prometheus.CounterVec
	IdempotencyDuplicates *prometheus.CounterVec
	DedupLRUSize          prometheus.Gauge

	// --- Channels & Workers ---
	ChannelSize     *prometheus.GaugeVec
	ChannelCapacity *prometheus.GaugeVec
	ProjectionDrops prometheus.Counter
	PublishDrops    prometheus.Counter

	// --- Projections ---
	ProjectionErrors       prometheus.Counter
	ProjectionLastSequence prometheus.Gauge

	// --- Persistence ---
	PersistOpsWritten   prometheus.Counter
	PersistBatchSize    prometheus.Histogram
	PersistErrors       *prometheus.CounterVec
	PersistLastSequence prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.00001, 0.000025, 0.00005, 0.0001, 0.00025,
		0.0005, 0.001, 0.002, 0.005, 0.01, 0.05, 0.1,
	}

	return &Metrics{
		OpsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_ops_applied_total",
			Help: "Operations successfully applied by the engine",
		}, []string{"op_type"}),

		OpsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_ops_rejected_total",
			Help: "Operations rejected by the engine",
		}, []string{"op_type", "reason"}),

		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vault_op_duration_seconds",
			Help:    "Time to apply a single operation in the engine",
			Buckets: latencyBuckets,
		}, []string{"op_type"}),

		Deposits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_deposits_total",
			Help: "Successfully credited deposits",
		}),

		Withdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_withdrawals_total",
			Help: "Successfully debited withdrawals",
		}),

		TotalValueHeld: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_total_value_held",
			Help: "Vault holdings priced in reference currency (settlement precision)",
		}),

		OracleRate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_oracle_rate",
			Help: "Last validated oracle rate (oracle precision)",
		}),

		OracleFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_oracle_failures_total",
			Help: "Oracle reads rejected by validation",
		}, []string{"reason"}),

		Conversions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_conversions_total",
			Help: "Successful asset conversions on the external venue",
		}),

		ConversionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_conversion_failures_total",
			Help: "Conversions the venue could not route",
		}),

		OpsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_ops_ingested_total",
			Help: "Operation requests received from NATS",
		}, []string{"op_type"}),

		IdempotencyDuplicates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_idempotency_duplicates_total",
			Help: "Duplicate operation requests skipped",
		}, []string{"tier"}),

		DedupLRUSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_dedup_lru_size",
			Help: "Entries in the idempotency LRU",
		}),

		ChannelSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vault_channel_size",
			Help: "Current fill of internal channels",
		}, []string{"channel"}),

		ChannelCapacity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vault_channel_capacity",
			Help: "Capacity of internal channels",
		}, []string{"channel"}),

		ProjectionDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_projection_drops_total",
			Help: "Outputs dropped on the non-blocking projection channel",
		}),

		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_publish_drops_total",
			Help: "Outbound events dropped before NATS publish",
		}),

		ProjectionErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_projection_errors_total",
			Help: "Projection updates that failed and were skipped",
		}),

		ProjectionLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_projection_last_sequence",
			Help: "Last sequence applied to projections",
		}),

		PersistOpsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_persist_ops_written_total",
			Help: "Operation rows written to Postgres",
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vault_persist_batch_size",
			Help:    "Rows per persisted batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_persist_errors_total",
			Help: "Persistence write failures",
		}, []string{"kind"}),

		PersistLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_persist_last_sequence",
			Help: "Last sequence durably written",
		}),
	}
}
