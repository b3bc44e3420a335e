package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

// extractionPrompt instrucciones compartidas por los adaptadores que hablan con un modelo.
// La función edge tiene su propio prompt del lado del servidor.
const extractionPrompt = `Eres un asistente de cuentas por pagar de una empresa brasileña.
Recibirás la imagen o PDF de un documento fiscal (DANFE, boleto, factura de servicio) o de un comprobante de pago (PIX, TED, recibo bancario).
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin texto adicional) con esta estructura:
{
  "intent": "NEW_OBLIGATION" | "SETTLEMENT",
  "confidence": <entero 0-100>,
  "notes": ["<observación breve>", ...],
  "document": {
    "number": "<número del documento>",
    "access_key": "<chave de acesso de 44 dígitos o vacío>",
    "issuer_tax_id": "<CNPJ o CPF del emisor>",
    "issuer_name": "<razón social del emisor>",
    "issuer_trade_name": "<nombre fantasía o vacío>",
    "total_amount": <número con punto decimal>,
    "issue_date": "AAAA-MM-DD",
    "description": "<descripción corta>",
    "suggested_category": "<categoría de gasto sugerida>"
  },
  "installments": [{"number": "<nDup>", "amount": <número>, "due_date": "AAAA-MM-DD"}],
  "payment": {
    "amount": <monto pagado>,
    "date": "AAAA-MM-DD",
    "interest": <juros>,
    "discount": <desconto>,
    "penalty": <multa>,
    "reference_hint": "<número de documento, beneficiario o línea digitable visible>"
  }
}

Reglas:
- NEW_OBLIGATION: completa "document" e "installments"; omite "payment".
- SETTLEMENT: completa "payment"; omite "document" e "installments".
- Montos en reales con punto decimal, sin símbolo de moneda.
- Si un dato no es legible déjalo vacío y explícalo en "notes"; no inventes valores.`

// jsonBlockRe extrae el primer objeto JSON del texto aunque el modelo lo envuelva en markdown.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ── Formato de intercambio ───────────────────────────────────────────────────

type wireResult struct {
	Intent       string            `json:"intent"`
	Confidence   *float64          `json:"confidence"`
	Notes        wireNotes         `json:"notes"`
	Document     *wireDocument     `json:"document"`
	Installments []wireInstallment `json:"installments"`
	Payment      *wirePayment      `json:"payment"`
	Error        string            `json:"error"`
}

type wireDocument struct {
	Number            string     `json:"number"`
	AccessKey         string     `json:"access_key"`
	IssuerTaxID       string     `json:"issuer_tax_id"`
	IssuerName        string     `json:"issuer_name"`
	IssuerTradeName   string     `json:"issuer_trade_name"`
	TotalAmount       wireAmount `json:"total_amount"`
	IssueDate         string     `json:"issue_date"`
	Description       string     `json:"description"`
	SuggestedCategory string     `json:"suggested_category"`
}

type wireInstallment struct {
	Number  string     `json:"number"`
	Amount  wireAmount `json:"amount"`
	DueDate string     `json:"due_date"`
}

type wirePayment struct {
	Amount        wireAmount `json:"amount"`
	Date          string     `json:"date"`
	Interest      wireAmount `json:"interest"`
	Discount      wireAmount `json:"discount"`
	Penalty       wireAmount `json:"penalty"`
	ReferenceHint string     `json:"reference_hint"`
}

// wireNotes acepta una lista de textos o un texto suelto.
type wireNotes []string

func (n *wireNotes) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*n = list
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	if one = strings.TrimSpace(one); one != "" {
		*n = wireNotes{one}
	}
	return nil
}

// wireAmount acepta número, null o texto ("1.234,56", "R$ 10,00", "10.5").
type wireAmount struct {
	decimal.Decimal
}

func (a *wireAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		a.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		d, err := parseLocalizedAmount(raw)
		if err != nil {
			return err
		}
		a.Decimal = d
		return nil
	}
	return a.Decimal.UnmarshalJSON(b)
}

// parseLocalizedAmount interpreta montos en formato brasileño o con punto decimal.
func parseLocalizedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("monto ilegible %q", s)
	}
	return d, nil
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00"}

func parseWireDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, true
		}
	}
	return nil, false
}

// ── Normalización ────────────────────────────────────────────────────────────

// decodeResult convierte el texto devuelto por el servicio en un ExtractionResult.
// Un campo "error" del servicio se devuelve tal cual envuelto en ErrExtractionService.
func decodeResult(text string) (*entity.ExtractionResult, error) {
	clean := extractJSON(text)
	if clean == "" {
		return nil, fmt.Errorf("%w: no se encontró JSON en la respuesta", domain.ErrExtractionService)
	}
	var w wireResult
	if err := json.Unmarshal([]byte(clean), &w); err != nil {
		return nil, fmt.Errorf("%w: JSON inválido: %v", domain.ErrExtractionService, err)
	}
	if w.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionService, w.Error)
	}

	res := &entity.ExtractionResult{
		Intent:     entity.ExtractionIntent(strings.ToUpper(strings.TrimSpace(w.Intent))),
		Confidence: normalizeConfidence(w.Confidence),
		Notes:      append([]string(nil), w.Notes...),
	}
	if !res.Intent.Valid() {
		return nil, fmt.Errorf("%w: intent desconocido %q", domain.ErrExtractionService, w.Intent)
	}

	switch res.Intent {
	case entity.IntentNewObligation:
		res.Obligation = toObligation(w.Document, w.Installments, &res.Notes)
	case entity.IntentSettlement:
		if w.Payment != nil {
			res.Payment = toPayment(w.Payment, &res.Notes)
		}
	}
	return res, nil
}

func toObligation(doc *wireDocument, insts []wireInstallment, notes *[]string) *entity.ObligationDraft {
	if doc == nil && len(insts) == 0 {
		return nil
	}
	if doc == nil {
		doc = &wireDocument{}
	}
	ob := &entity.ObligationDraft{
		DocumentNumber:    strings.TrimSpace(doc.Number),
		AccessKey:         strings.TrimSpace(doc.AccessKey),
		IssuerTaxID:       strings.TrimSpace(doc.IssuerTaxID),
		IssuerName:        strings.TrimSpace(doc.IssuerName),
		IssuerTradeName:   strings.TrimSpace(doc.IssuerTradeName),
		TotalAmount:       doc.TotalAmount.Decimal,
		Description:       strings.TrimSpace(doc.Description),
		SuggestedCategory: strings.TrimSpace(doc.SuggestedCategory),
	}
	if d, ok := parseWireDate(doc.IssueDate); ok {
		ob.IssueDate = d
	} else {
		*notes = append(*notes, fmt.Sprintf("fecha de emisión ilegible: %s", doc.IssueDate))
	}
	for i, it := range insts {
		raw := entity.RawInstallment{Sequence: i + 1, Label: strings.TrimSpace(it.Number), Amount: it.Amount.Decimal}
		if d, ok := parseWireDate(it.DueDate); ok {
			raw.DueDate = d
		} else {
			*notes = append(*notes, fmt.Sprintf("vencimiento ilegible en cuota %d: %s", i+1, it.DueDate))
		}
		ob.Installments = append(ob.Installments, raw)
	}
	return ob
}

func toPayment(p *wirePayment, notes *[]string) *entity.PaymentInfo {
	out := &entity.PaymentInfo{
		Amount:        p.Amount.Decimal,
		Interest:      p.Interest.Decimal.Abs(),
		Discount:      p.Discount.Decimal.Abs(),
		Penalty:       p.Penalty.Decimal.Abs(),
		ReferenceHint: strings.TrimSpace(p.ReferenceHint),
	}
	if d, ok := parseWireDate(p.Date); ok {
		out.PaidAt = d
	} else {
		*notes = append(*notes, fmt.Sprintf("fecha de pago ilegible: %s", p.Date))
	}
	return out
}

// normalizeConfidence lleva la confianza a 0..100; valores en [0,1] se escalan.
func normalizeConfidence(c *float64) int {
	if c == nil || math.IsNaN(*c) {
		return 0
	}
	v := *c
	if v > 0 && v <= 1 {
		v *= 100
	}
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(math.Round(v))
}

// extractJSON quita bloques markdown (```json … ```) y devuelve el primer objeto { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}
