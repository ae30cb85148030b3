package telemetry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/telemetry"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

var (
	_ ports.Metrics       = (*telemetry.Metrics)(nil)
	_ postgres.TxObserver = (*telemetry.Metrics)(nil)
)

func TestMetrics_TransicionesPorResultado(t *testing.T) {
	m := telemetry.NewMetrics()

	m.ObserveTransition("send_to_roast", 5*time.Millisecond, nil)
	m.ObserveTransition("send_to_roast", time.Millisecond, &domain.QuantityError{Entity: "lote", ID: "x"})
	m.ObserveTransition("send_to_roast", time.Millisecond, fmt.Errorf("tx: %w", domain.ErrStoreUnavailable))

	count, err := testutil.GatherAndCount(m.Registry(), "trazabilidad_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetrics_MovimientosYFallas(t *testing.T) {
	m := telemetry.NewMetrics()

	m.ObserveMovement(entity.MovementTypeIn)
	m.ObserveMovement(entity.MovementTypeIn)
	m.ObserveMovement(entity.MovementTypeOut)
	m.ObserveIntegrityFault("p-1")
	m.ObserveTx(time.Millisecond, nil)
	m.ObserveTx(time.Millisecond, errors.New("conexión cerrada"))

	count, err := testutil.GatherAndCount(m.Registry(), "trazabilidad_inventory_movements_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(m.Registry(), "trazabilidad_integrity_faults_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(m.Registry(), "trazabilidad_db_transactions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTracing_SinEndpointEsNoop(t *testing.T) {
	tr, err := telemetry.NewTracing(context.Background(), config.TelemetryConfig{ServiceName: "test"}, "dev", logger.Nop())
	require.NoError(t, err)

	assert.False(t, tr.Enabled())
	_, span := tr.Tracer().Start(context.Background(), "noop")
	span.End()
	assert.NoError(t, tr.Shutdown(context.Background()))
}
