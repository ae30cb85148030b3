package entity

import (
	"encoding/json"
	"time"
)

// Label etiqueta de trazabilidad. Una vez emitida no se modifica; regenerar crea un código nuevo.
type Label struct {
	ID              string
	Code            string
	PackagedBatchID string
	Sequence        int
	Snapshot        json.RawMessage // vista de procedencia al momento de emitir
	CreatedBy       string
	CreatedAt       time.Time
}
