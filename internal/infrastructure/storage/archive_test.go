package storage_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/storage"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
)

// fakeS3 subconjunto mínimo de S3 (HEAD y PUT, estilo path /bucket/key) para probar sin red.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	empty := io.NopCloser(bytes.NewReader(nil))
	switch req.Method {
	case http.MethodHead:
		if body, ok := f.objects[key]; ok {
			return &http.Response{StatusCode: 200, Body: empty, Header: http.Header{
				"Content-Length": {strconv.Itoa(len(body))},
				"Content-Type":   {f.types[key]},
				"ETag":           {`"etag"`},
			}}, nil
		}
		return &http.Response{StatusCode: 404, Body: empty, Header: http.Header{}}, nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = body
		f.types[key] = req.Header.Get("Content-Type")
		return &http.Response{StatusCode: 200, Body: empty, Header: http.Header{"ETag": {`"etag"`}}}, nil
	}
	return &http.Response{StatusCode: 501, Body: empty, Header: http.Header{}}, nil
}

func newFakeS3Archive(t *testing.T) (*storage.S3Archive, *fakeS3) {
	t.Helper()
	rt := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	a, err := storage.NewS3Archive(context.Background(), storage.S3Config{
		Bucket:     "etiquetas",
		Region:     "us-east-1",
		Endpoint:   "https://mock.s3.local",
		PathStyle:  true,
		AccessKey:  "AKIA",
		SecretKey:  "SECRET",
		HTTPClient: &http.Client{Transport: rt},
	})
	require.NoError(t, err)
	return a, rt
}

func TestS3Archive_SoloCreacion(t *testing.T) {
	a, rt := newFakeS3Archive(t)
	ctx := context.Background()
	key := "labels/pkg-1/000001-000003.pdf"

	require.NoError(t, a.Put(ctx, key, []byte("%PDF-1.4 hoja"), "application/pdf"))
	require.Contains(t, rt.objects, key)
	assert.True(t, bytes.Contains(rt.objects[key], []byte("%PDF-1.4 hoja")))
	assert.Equal(t, "application/pdf", rt.types[key])

	err := a.Put(ctx, key, []byte("otro"), "application/pdf")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.True(t, bytes.Contains(rt.objects[key], []byte("%PDF-1.4 hoja")), "no sobrescribe")
}

func TestS3Archive_BucketRequerido(t *testing.T) {
	_, err := storage.NewS3Archive(context.Background(), storage.S3Config{})
	assert.Error(t, err)
}

func TestFSArchive_SoloCreacion(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := storage.NewFSArchiveOn(fs)
	ctx := context.Background()

	require.NoError(t, a.Put(ctx, "labels/pkg-1/000001-000002.pdf", []byte("%PDF"), "application/pdf"))
	data, err := afero.ReadFile(fs, "/labels/pkg-1/000001-000002.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	err = a.Put(ctx, "labels/pkg-1/000001-000002.pdf", []byte("x"), "")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestFSArchive_LlaveNoSaleDelDirectorio(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := storage.NewFSArchiveOn(fs)

	require.NoError(t, a.Put(context.Background(), "../../etc/passwd", []byte("x"), ""))
	ok, err := afero.Exists(fs, "/etc/passwd")
	require.NoError(t, err)
	assert.True(t, ok, "la ruta se normaliza dentro de la raíz del archivo")
}

func TestNewLabelArchive_PorDriver(t *testing.T) {
	a, err := storage.NewLabelArchive(context.Background(), config.LabelsConfig{ArchiveDriver: config.ArchiveNone})
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = storage.NewLabelArchive(context.Background(), config.LabelsConfig{ArchiveDriver: config.ArchiveFS, FSDir: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = storage.NewLabelArchive(context.Background(), config.LabelsConfig{ArchiveDriver: "ftp"})
	assert.Error(t, err)
}
