package nfexml

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
	"github.com/jhoicas/fiscal-ingest-api/pkg/nfe"
)

const dateLayout = "2006-01-02"

// filenameNumberRe número de 8 o 9 dígitos aislado en el nombre del archivo.
var filenameNumberRe = regexp.MustCompile(`(?:^|\D)(\d{8,9})(?:\D|$)`)

// Extractor lee los campos de una NF-e (XML) y arma un FiscalDocument.
// No tiene efectos secundarios más allá del log de diagnóstico.
type Extractor struct {
	log *logger.Logger
	now func() time.Time
}

// NewExtractor construye el extractor. log puede ser nil.
func NewExtractor(log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{log: log, now: time.Now}
}

// WithClock reemplaza el reloj usado para la fecha de emisión por defecto.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract parsea content y devuelve el documento o un error envuelto en uno de
// ErrMalformedDocument, ErrMissingInvoiceStructure, ErrUnidentifiableDocument,
// ErrMissingIssuerData o ErrInvalidAmount.
func (e *Extractor) Extract(content []byte, fileName string) (*entity.FiscalDocument, error) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, fmt.Errorf("%w: archivo vacío", domain.ErrMalformedDocument)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: documento sin elemento raíz", domain.ErrMalformedDocument)
	}

	inf := doc.FindElement("//infNFe")
	if inf == nil {
		return nil, domain.ErrMissingInvoiceStructure
	}

	log := e.log.With().Str("file", fileName).Logger()
	out := &entity.FiscalDocument{SourceFile: fileName}

	// chave de acesso
	if id := inf.SelectAttrValue("Id", ""); id != "" {
		out.AccessKey = nfe.NormalizeAccessKey(id)
		log.Debug().Str("path", "infNFe/@Id").Msg("chave encontrada")
	} else if v, path := firstText(doc, inf, accessKeyFallbackLookups); v != "" {
		out.AccessKey = nfe.NormalizeAccessKey(v)
		log.Debug().Str("path", path).Msg("chave encontrada")
	}
	if out.AccessKey != "" {
		if _, err := nfe.ParseAccessKey(out.AccessKey); err != nil {
			log.Warn().Err(err).Msg("chave de acesso no válida, se usa igual como referencia")
		}
	}

	// número del documento con cadena de respaldo
	if v, path := firstText(doc, inf, documentNumberLookups); v != "" {
		out.DocumentNumber = v
		out.NumberSource = entity.NumberFromXML
		log.Debug().Str("path", path).Str("number", v).Msg("número encontrado")
	} else if n, ok := nfe.NumberFromKey(out.AccessKey); ok {
		out.DocumentNumber = n
		out.NumberSource = entity.NumberFromAccessKey
		log.Debug().Str("number", n).Msg("número derivado de la chave")
	} else if n := numberFromFilename(fileName); n != "" {
		out.DocumentNumber = n
		out.NumberSource = entity.NumberFromFilename
		log.Debug().Str("number", n).Msg("número derivado del nombre de archivo")
	}
	if out.DocumentNumber == "" && out.AccessKey == "" {
		return nil, domain.ErrUnidentifiableDocument
	}

	// emisor
	taxID, _ := firstText(doc, inf, issuerTaxIDLookups)
	out.IssuerTaxID = nfe.OnlyDigits(taxID)
	out.IssuerLegalName, _ = firstText(doc, inf, issuerLegalNameLookups)
	out.IssuerTradeName, _ = firstText(doc, inf, issuerTradeNameLookups)
	if out.IssuerTaxID == "" || out.IssuerLegalName == "" {
		return nil, fmt.Errorf("%w: CNPJ/CPF=%q xNome=%q", domain.ErrMissingIssuerData, out.IssuerTaxID, out.IssuerLegalName)
	}
	if err := nfe.ValidateTaxID(out.IssuerTaxID); err != nil {
		log.Warn().Err(err).Msg("documento del emisor con dígito verificador inválido")
	}

	// total
	rawTotal, _ := firstText(doc, inf, totalLookups)
	total, err := parseAmount(rawTotal)
	if err != nil || !total.IsPositive() {
		return nil, fmt.Errorf("%w: vNF=%q", domain.ErrInvalidAmount, rawTotal)
	}
	out.TotalAmount = total

	// emisión
	out.IssueDate = dateOnly(e.now())
	if v, path := firstText(doc, inf, issueDateLookups); v != "" {
		if d, ok := parseDate(v); ok {
			out.IssueDate = d
		} else {
			log.Warn().Str("path", path).Str("value", v).Msg("fecha de emisión ilegible, se usa la fecha actual")
		}
	}

	// duplicatas
	dups := firstElements(doc, inf, duplicataLookups)
	for i, dup := range dups {
		inst, err := parseDuplicata(dup, i+1)
		if err != nil {
			return nil, err
		}
		out.Installments = append(out.Installments, inst)
	}
	if len(out.Installments) == 0 {
		out.Installments = []entity.RawInstallment{{Sequence: 1, Amount: total}}
	}

	log.Debug().
		Str("reference_key", out.ReferenceKey()).
		Int("installments", len(out.Installments)).
		Msg("NF-e extraída")
	return out, nil
}

func parseDuplicata(dup *etree.Element, seq int) (entity.RawInstallment, error) {
	label := childText(dup, "nDup")
	if n, err := strconv.Atoi(nfe.OnlyDigits(label)); err == nil && n > 0 {
		seq = n
	}
	rawAmount := childText(dup, "vDup")
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return entity.RawInstallment{}, fmt.Errorf("%w: vDup=%q en duplicata %q", domain.ErrInvalidAmount, rawAmount, label)
	}
	inst := entity.RawInstallment{Sequence: seq, Label: label, Amount: amount}
	if d, ok := parseDate(childText(dup, "dVenc")); ok {
		inst.DueDate = &d
	}
	return inst, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("monto vacío")
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

// parseDate acepta "2006-01-02" o un datetime con esa fecha al inicio (dhEmi).
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func numberFromFilename(name string) string {
	base := filepath.Base(name)
	m := filenameNumberRe.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return m[1]
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// charsetReader decodifica NF-e antiguas declaradas como ISO-8859-1 o Windows-1252.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	case "utf-8", "utf8", "":
		return input, nil
	}
	return nil, fmt.Errorf("codificación no soportada: %s", label)
}
