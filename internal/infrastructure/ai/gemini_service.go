package ai

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

var _ ports.DocumentExtractionService = (*GeminiService)(nil)

// GeminiService adaptador sobre Gemini en Vertex AI. El archivo viaja como Blob inline
// y el modelo está configurado para responder application/json.
type GeminiService struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiService crea el cliente de Vertex AI. Usa las credenciales por defecto de GCP.
func NewGeminiService(ctx context.Context, projectID, location, model string) (*GeminiService, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("gemini: GEMINI_PROJECT_ID y GEMINI_LOCATION son obligatorios")
	}
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(extractionPrompt)}}
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.1),
	}
	return &GeminiService{client: client, model: m}, nil
}

// Close libera el cliente.
func (s *GeminiService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ExtractDocument envía el archivo inline y normaliza la respuesta.
func (s *GeminiService) ExtractDocument(ctx context.Context, in ports.DocumentInput) (*entity.ExtractionResult, error) {
	resp, err := s.model.GenerateContent(ctx,
		genai.Blob{MIMEType: in.MIMEType, Data: in.Content},
		genai.Text("Extrae los datos de este documento ("+in.FileName+")."),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: timeout o cancelación: %v", domain.ErrExtractionService, ctx.Err())
		}
		return nil, fmt.Errorf("%w: Gemini: %v", domain.ErrExtractionService, err)
	}
	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: respuesta vacía del modelo", domain.ErrExtractionService)
	}
	return decodeResult(text)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
