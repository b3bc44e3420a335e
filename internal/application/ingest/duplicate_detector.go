package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain/repository"
)

// Criterios de coincidencia de un duplicado.
const (
	MatchedOnAccessKey        = "access_key"
	MatchedOnDocumentNumber   = "document_number"
	MatchedOnDescription      = "description"
	MatchedOnUniqueConstraint = "unique_constraint"
)

// DuplicateCheck resultado de la verificación de duplicados.
type DuplicateCheck struct {
	IsDuplicate bool
	MatchedOn   string
}

// DuplicateDetector evita reimportar un documento ya registrado.
// Es consultivo: la restricción única de reference_key en la base cierra la carrera
// entre la verificación y el insert.
type DuplicateDetector struct {
	repo  repository.PayableRepository
	label string
}

// NewDuplicateDetector construye el detector. label es el prefijo de la descripción ("NF").
func NewDuplicateDetector(repo repository.PayableRepository, label string) *DuplicateDetector {
	return &DuplicateDetector{repo: repo, label: label}
}

// Check busca por reference_key (chave primero, luego número). Solo cuando el
// documento no trae chave se recurre a la descripción "<label> <número>"; una chave
// que no coincide con nada identifica un documento nuevo.
func (d *DuplicateDetector) Check(ctx context.Context, accessKey, documentNumber string) (DuplicateCheck, error) {
	accessKey = strings.TrimSpace(accessKey)
	documentNumber = strings.TrimSpace(documentNumber)

	keys := []struct{ value, matchedOn string }{
		{accessKey, MatchedOnAccessKey},
		{documentNumber, MatchedOnDocumentNumber},
	}
	for _, k := range keys {
		if k.value == "" {
			continue
		}
		exists, err := d.repo.ExistsByReference(ctx, k.value)
		if err != nil {
			return DuplicateCheck{}, fmt.Errorf("verificar duplicado por %s: %w", k.matchedOn, err)
		}
		if exists {
			return DuplicateCheck{IsDuplicate: true, MatchedOn: k.matchedOn}, nil
		}
	}

	if accessKey == "" && documentNumber != "" {
		exists, err := d.repo.ExistsByDescription(ctx, DescriptionKey(d.label, documentNumber))
		if err != nil {
			return DuplicateCheck{}, fmt.Errorf("verificar duplicado por descripción: %w", err)
		}
		if exists {
			return DuplicateCheck{IsDuplicate: true, MatchedOn: MatchedOnDescription}, nil
		}
	}
	return DuplicateCheck{}, nil
}

// DescriptionKey fragmento "<label> <número>" con el que empieza la descripción del documento.
func DescriptionKey(label, documentNumber string) string {
	return strings.TrimSpace(label + " " + documentNumber)
}

// Description descripción completa del documento por pagar.
func Description(label, documentNumber, issuerName string) string {
	key := DescriptionKey(label, documentNumber)
	if issuerName == "" {
		return key
	}
	return key + " - " + issuerName
}
