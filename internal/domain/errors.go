package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrInsufficientQuantity = errors.New("cantidad insuficiente")
	ErrInvalidQuantity      = errors.New("cantidad inválida")
	ErrInvalidState         = errors.New("estado inválido para la operación")
	ErrIntegrityFault       = errors.New("falla de integridad del inventario")
	ErrStoreUnavailable     = errors.New("almacenamiento no disponible")
)

// QuantityError acompaña ErrInsufficientQuantity con lo solicitado y lo disponible
// para que el llamador pueda reintentar con un valor correcto.
type QuantityError struct {
	Entity    string
	ID        string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s %s: solicitado %s, disponible %s",
		e.Entity, e.ID, e.Requested.String(), e.Available.String())
}

func (e *QuantityError) Unwrap() error { return ErrInsufficientQuantity }

// StateError acompaña ErrInvalidState con el estado actual y el esperado.
type StateError struct {
	Entity   string
	ID       string
	Current  string
	Expected string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s %s: estado actual %q, se requiere %q", e.Entity, e.ID, e.Current, e.Expected)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// IntegrityError describe una divergencia entre el stock proyectado y el ledger.
type IntegrityError struct {
	ProductID string
	Stored    decimal.Decimal
	Replayed  decimal.Decimal
	Detail    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("producto %s: stock almacenado %s, replay del ledger %s (%s)",
		e.ProductID, e.Stored.String(), e.Replayed.String(), e.Detail)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrityFault }

// IsBusinessError indica si err es una falla de regla de negocio, detectada antes de escribir.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrInsufficientQuantity,
		ErrInvalidQuantity, ErrInvalidState, ErrForbidden, ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
