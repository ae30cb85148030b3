// Package telemetry contiene los adaptadores de métricas Prometheus y trazas OpenTelemetry.
package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

const namespace = "trazabilidad"

// Metrics implementa ports.Metrics y postgres.TxObserver sobre un registro propio.
type Metrics struct {
	registry *prometheus.Registry

	transitions        *prometheus.CounterVec
	transitionDuration *prometheus.HistogramVec
	movements          *prometheus.CounterVec
	integrityFaults    *prometheus.CounterVec
	txTotal            *prometheus.CounterVec
	txDuration         prometheus.Histogram
}

// NewMetrics registra los colectores de negocio y los del runtime de Go.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Transiciones de etapa por tipo y resultado.",
		}, []string{"kind", "result"}),
		transitionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Duración de las transiciones de etapa.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_movements_total",
			Help:      "Movimientos escritos en el ledger por tipo.",
		}, []string{"type"}),
		integrityFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_faults_total",
			Help:      "Divergencias entre stock proyectado y ledger.",
		}, []string{"product_id"}),
		txTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_transactions_total",
			Help:      "Transacciones de base de datos por resultado.",
		}, []string{"result"}),
		txDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_transaction_duration_seconds",
			Help:      "Duración de las transacciones de base de datos.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}
	reg.MustRegister(
		m.transitions, m.transitionDuration, m.movements, m.integrityFaults,
		m.txTotal, m.txDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry expone el registro para el handler /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveTransition cuenta la transición y su duración.
func (m *Metrics) ObserveTransition(kind string, d time.Duration, err error) {
	m.transitions.WithLabelValues(kind, resultLabel(err)).Inc()
	m.transitionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveMovement cuenta un movimiento del ledger.
func (m *Metrics) ObserveMovement(t entity.MovementType) {
	m.movements.WithLabelValues(string(t)).Inc()
}

// ObserveIntegrityFault cuenta una divergencia detectada.
func (m *Metrics) ObserveIntegrityFault(productID string) {
	m.integrityFaults.WithLabelValues(productID).Inc()
}

// ObserveTx registra una transacción de base de datos.
func (m *Metrics) ObserveTx(d time.Duration, err error) {
	m.txTotal.WithLabelValues(resultLabel(err)).Inc()
	m.txDuration.Observe(d.Seconds())
}

// resultLabel separa rechazos de negocio de fallas de almacenamiento.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_error"
	case domain.IsBusinessError(err):
		return "rejected"
	default:
		return "error"
	}
}
