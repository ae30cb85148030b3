package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
)

// NewLabelArchive construye el archivo según el driver configurado. Con "none" devuelve nil.
func NewLabelArchive(ctx context.Context, cfg config.LabelsConfig) (ports.LabelArchive, error) {
	switch cfg.ArchiveDriver {
	case "", config.ArchiveNone:
		return nil, nil
	case config.ArchiveFS:
		a, err := NewFSArchive(cfg.FSDir)
		if err != nil {
			return nil, err
		}
		return a, nil
	case config.ArchiveS3:
		a, err := NewS3Archive(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("archivo de etiquetas: driver %q desconocido", cfg.ArchiveDriver)
	}
}
