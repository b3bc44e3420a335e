package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/ai"
)

type capturedRequest struct {
	Model    string `json:"model"`
	System   string `json:"system"`
	Messages []struct {
		Content []struct {
			Type   string `json:"type"`
			Source *struct {
				MediaType string `json:"media_type"`
			} `json:"source"`
		} `json:"content"`
	} `json:"messages"`
}

func TestAnthropic_BloqueDocumentoParaPDF(t *testing.T) {
	var got capturedRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Aquí está:\n{\"intent\":\"NEW_OBLIGATION\",\"confidence\":70,\"document\":{\"number\":\"9\"}}"}]}`))
	}))
	t.Cleanup(srv.Close)
	svc := ai.NewAnthropicService("sk-test", "claude-test", time.Second).WithURL(srv.URL)

	res, err := svc.ExtractDocument(context.Background(), ports.DocumentInput{FileName: "nf.pdf", MIMEType: "application/pdf", Content: []byte("%PDF")})

	require.NoError(t, err)
	assert.Equal(t, "sk-test", apiKey)
	assert.Equal(t, "claude-test", got.Model)
	assert.NotEmpty(t, got.System)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "document", got.Messages[0].Content[0].Type)
	assert.Equal(t, "application/pdf", got.Messages[0].Content[0].Source.MediaType)

	assert.Equal(t, entity.IntentNewObligation, res.Intent)
	assert.Equal(t, "9", res.Obligation.DocumentNumber)
}

func TestAnthropic_ErrorDeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	t.Cleanup(srv.Close)

	_, err := ai.NewAnthropicService("k", "m", time.Second).WithURL(srv.URL).
		ExtractDocument(context.Background(), ports.DocumentInput{MIMEType: "image/png", Content: []byte("x")})

	assert.ErrorIs(t, err, domain.ErrExtractionService)
	assert.Contains(t, err.Error(), "rate_limit_error")
}

func TestAnthropic_SinAPIKey(t *testing.T) {
	_, err := ai.NewAnthropicService("", "m", 0).ExtractDocument(context.Background(), ports.DocumentInput{})
	assert.ErrorIs(t, err, domain.ErrExtractionService)
}
