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

// Verificar en tiempo de compilación que AnthropicService implementa el puerto.
var _ ports.DocumentExtractionService = (*AnthropicService)(nil)

const (
	defaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion    = "2023-06-01"
)

// AnthropicService adaptador que lee documentos con la API Messages de Anthropic
// usando bloques image/document. Usa net/http; no requiere el SDK oficial.
type AnthropicService struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewAnthropicService construye el adaptador.
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewAnthropicService(apiKey, model string, timeout time.Duration) *AnthropicService {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &AnthropicService{
		apiKey:     apiKey,
		model:      model,
		url:        defaultAnthropicURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithURL apunta el adaptador a otro endpoint (proxy, tests).
func (s *AnthropicService) WithURL(url string) *AnthropicService {
	s.url = url
	return s
}

// ── Protocolo Messages API ────────────────────────────────────────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type   string           `json:"type"` // text, image, document
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"` // base64
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractDocument envía el archivo como bloque image o document y normaliza el JSON devuelto.
func (s *AnthropicService) ExtractDocument(ctx context.Context, in ports.DocumentInput) (*entity.ExtractionResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY no configurado", domain.ErrExtractionService)
	}

	blockType := "image"
	if in.IsPDF() {
		blockType = "document"
	}
	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: 2048,
		System:    extractionPrompt,
		Messages: []anthropicMessage{{
			Role: "user",
			Content: []anthropicContentBlock{
				{
					Type: blockType,
					Source: &anthropicSource{
						Type:      "base64",
						MediaType: in.MIMEType,
						Data:      base64.StdEncoding.EncodeToString(in.Content),
					},
				},
				{Type: "text", Text: "Extrae los datos de este documento (" + in.FileName + ")."},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serializar request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: timeout o cancelación: %v", domain.ErrExtractionService, ctx.Err())
		}
		return nil, fmt.Errorf("%w: llamada HTTP fallida: %v", domain.ErrExtractionService, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrExtractionService, err)
	}

	var anthResp anthropicResponse
	jsonErr := json.Unmarshal(rawBody, &anthResp)
	if resp.StatusCode != http.StatusOK {
		if jsonErr == nil && anthResp.Error != nil {
			return nil, fmt.Errorf("%w: Anthropic (%s): %s", domain.ErrExtractionService, anthResp.Error.Type, anthResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: Anthropic HTTP %d: %s", domain.ErrExtractionService, resp.StatusCode, truncate(string(rawBody), 300))
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("%w: deserializar respuesta Anthropic: %v", domain.ErrExtractionService, jsonErr)
	}

	for _, c := range anthResp.Content {
		if c.Type == "text" && c.Text != "" {
			return decodeResult(c.Text)
		}
	}
	return nil, fmt.Errorf("%w: respuesta vacía del modelo", domain.ErrExtractionService)
}
