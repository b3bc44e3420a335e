package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
)

var (
	_ ports.FileArchiver = (*GCSArchiver)(nil)
	_ ports.FileArchiver = NopArchiver{}
)

// GCSArchiver guarda una copia de cada archivo fuente confirmado en un bucket.
// Escribe con la condición DoesNotExist: reimportar el mismo objeto no lo sobrescribe.
type GCSArchiver struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	prefix string
	now    func() time.Time
	log    *logger.Logger
}

// NewGCSArchiver crea el cliente con las credenciales por defecto de GCP.
func NewGCSArchiver(ctx context.Context, bucket, prefix string, log *logger.Logger) (*GCSArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: ARCHIVE_BUCKET vacío")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs.NewClient: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GCSArchiver{
		client: client,
		bucket: client.Bucket(bucket),
		prefix: prefix,
		now:    time.Now,
		log:    log,
	}, nil
}

// Close libera el cliente.
func (a *GCSArchiver) Close() error {
	return a.client.Close()
}

// Archive escribe content en <prefix>/<AAAA>/<MM>/<objectName>.
func (a *GCSArchiver) Archive(ctx context.Context, objectName string, content []byte) error {
	name := ObjectPath(a.prefix, a.now(), objectName)
	w := a.bucket.Object(name).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType(objectName)

	if _, err := io.Copy(w, bytes.NewReader(content)); err != nil {
		_ = w.Close()
		if isPreconditionFailed(err) {
			a.log.Debug().Str("object", name).Msg("[ARCHIVE] objeto ya existe, se omite")
			return nil
		}
		return fmt.Errorf("gcs: escribir %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			a.log.Debug().Str("object", name).Msg("[ARCHIVE] objeto ya existe, se omite")
			return nil
		}
		return fmt.Errorf("gcs: finalizar %s: %w", name, err)
	}
	a.log.Info().Str("object", name).Int("bytes", len(content)).Msg("[ARCHIVE] archivo guardado")
	return nil
}

// ObjectPath arma la ruta del objeto particionada por año/mes.
func ObjectPath(prefix string, at time.Time, objectName string) string {
	name := strings.TrimLeft(path.Clean("/"+objectName), "/")
	return path.Join(strings.Trim(prefix, "/"), at.Format("2006"), at.Format("01"), name)
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".xml":
		return "application/xml"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// NopArchiver descarta los archivos; se usa cuando no hay bucket configurado.
type NopArchiver struct{}

func (NopArchiver) Archive(context.Context, string, []byte) error { return nil }
