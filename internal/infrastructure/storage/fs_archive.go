package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/spf13/afero"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
)

var _ ports.LabelArchive = (*FSArchive)(nil)

// FSArchive guarda los PDFs bajo un directorio base. Las llaves no pueden salir de él.
type FSArchive struct {
	fs afero.Fs
}

// NewFSArchive archivo sobre el disco local en dir.
func NewFSArchive(dir string) (*FSArchive, error) {
	if dir == "" {
		return nil, fmt.Errorf("fs: directorio requerido")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fs: crear %s: %w", dir, err)
	}
	return NewFSArchiveOn(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// NewFSArchiveOn archivo sobre un afero.Fs arbitrario (ej. MemMapFs en pruebas).
func NewFSArchiveOn(fs afero.Fs) *FSArchive {
	return &FSArchive{fs: fs}
}

// Put crea el archivo con O_EXCL. Si existe devuelve domain.ErrDuplicate.
func (a *FSArchive) Put(_ context.Context, key string, body []byte, _ string) error {
	name := path.Clean("/" + key)
	if err := a.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return fmt.Errorf("fs: crear directorio de %s: %w", key, err)
	}
	f, err := a.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: archivo %s", domain.ErrDuplicate, key)
		}
		return fmt.Errorf("fs: abrir %s: %w", key, err)
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return fmt.Errorf("fs: escribir %s: %w", key, err)
	}
	return f.Close()
}
