package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

var _ ports.DocumentExtractionService = (*EdgeService)(nil)

// maxResponseBytes límite de lectura de respuestas de los servicios de extracción.
const maxResponseBytes = 256 * 1024

// EdgeService adaptador hacia la función edge de reconocimiento de documentos.
// Contrato: POST JSON {image_base64, image_mime_type} o {pdf_base64}; la respuesta ya
// viene en el formato de extracción o como {error: "..."}.
type EdgeService struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewEdgeService construye el adaptador. token se envía como Bearer si no está vacío.
func NewEdgeService(url, token string, timeout time.Duration) *EdgeService {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &EdgeService{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type edgeRequest struct {
	ImageBase64   string `json:"image_base64,omitempty"`
	ImageMIMEType string `json:"image_mime_type,omitempty"`
	PDFBase64     string `json:"pdf_base64,omitempty"`
}

// ExtractDocument envía el archivo y normaliza la respuesta.
func (s *EdgeService) ExtractDocument(ctx context.Context, in ports.DocumentInput) (*entity.ExtractionResult, error) {
	if s.url == "" {
		return nil, fmt.Errorf("%w: AI_EDGE_URL no configurado", domain.ErrExtractionService)
	}

	payload := edgeRequest{}
	encoded := base64.StdEncoding.EncodeToString(in.Content)
	if in.IsPDF() {
		payload.PDFBase64 = encoded
	} else {
		payload.ImageBase64 = encoded
		payload.ImageMIMEType = in.MIMEType
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: timeout o cancelación: %v", domain.ErrExtractionService, ctx.Err())
		}
		return nil, fmt.Errorf("%w: llamada HTTP fallida: %v", domain.ErrExtractionService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrExtractionService, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrExtractionService, e.Error)
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrExtractionService, resp.StatusCode, truncate(string(raw), 300))
	}
	return decodeResult(string(raw))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
