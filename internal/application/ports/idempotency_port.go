package ports

import (
	"context"
	"time"
)

// StoredResponse respuesta guardada para una llave de idempotencia ya completada.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore guarda llaves Idempotency-Key enviadas por los clientes.
// Reserve es atómico: solo una petición gana la llave.
type IdempotencyStore interface {
	// Reserve marca la llave como en curso. false si ya existía (en curso o completada).
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Complete guarda la respuesta final de una llave reservada.
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	// Lookup devuelve la respuesta guardada; nil si la llave no existe o sigue en curso.
	Lookup(ctx context.Context, key string) (*StoredResponse, error)
	// Release libera una llave reservada para permitir reintentos.
	Release(ctx context.Context, key string) error
}
