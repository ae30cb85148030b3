package ports

import "context"

// LabelArchive almacén externo de PDFs de etiquetas. Las llaves son de solo-creación:
// escribir sobre una existente devuelve domain.ErrDuplicate.
type LabelArchive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}
