package ports

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// Metrics puerto de salida para métricas de negocio.
// El adaptador Prometheus vive en infrastructure/telemetry; NoopMetrics sirve para tests y herramientas.
type Metrics interface {
	// ObserveTransition registra una transición de etapa (kind: send_to_roast, retrieve_roast, ...).
	ObserveTransition(kind string, d time.Duration, err error)
	// ObserveMovement registra un movimiento escrito en el ledger.
	ObserveMovement(t entity.MovementType)
	// ObserveIntegrityFault registra una divergencia detectada por el proyector.
	ObserveIntegrityFault(productID string)
}

// NoopMetrics descarta todo.
type NoopMetrics struct{}

func (NoopMetrics) ObserveTransition(string, time.Duration, error) {}
func (NoopMetrics) ObserveMovement(entity.MovementType)           {}
func (NoopMetrics) ObserveIntegrityFault(string)                  {}

// OrNoop devuelve m o NoopMetrics si es nil.
func OrNoop(m Metrics) Metrics {
	if m == nil {
		return NoopMetrics{}
	}
	return m
}
