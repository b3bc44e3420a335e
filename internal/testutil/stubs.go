package testutil

import (
	"context"
	"sync"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

var (
	_ ports.DocumentExtractionService = (*AIStub)(nil)
	_ ports.PDFInspector              = (*PDFStub)(nil)
	_ ports.FileArchiver              = (*ArchiverStub)(nil)
)

// AIStub servicio de extracción con respuesta fija.
type AIStub struct {
	Result *entity.ExtractionResult
	Err    error
	Calls  int
	Last   ports.DocumentInput
}

func (s *AIStub) ExtractDocument(_ context.Context, in ports.DocumentInput) (*entity.ExtractionResult, error) {
	s.Calls++
	s.Last = in
	if s.Err != nil {
		return nil, s.Err
	}
	cp := *s.Result
	cp.Notes = append([]string(nil), s.Result.Notes...)
	return &cp, nil
}

// PDFStub inspector de PDF con respuesta fija.
type PDFStub struct {
	Info *ports.PDFInfo
	Err  error
}

func (s *PDFStub) Inspect([]byte) (*ports.PDFInfo, error) {
	return s.Info, s.Err
}

// ArchiverStub guarda en memoria los objetos archivados.
type ArchiverStub struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func (a *ArchiverStub) Archive(_ context.Context, name string, content []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	if a.Objects == nil {
		a.Objects = map[string][]byte{}
	}
	a.Objects[name] = content
	return nil
}
