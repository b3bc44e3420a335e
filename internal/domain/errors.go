package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del pipeline de ingestión de documentos fiscales.
var (
	ErrMalformedDocument         = errors.New("documento mal formado")
	ErrMissingInvoiceStructure   = errors.New("el XML no contiene infNFe")
	ErrUnidentifiableDocument    = errors.New("no se pudo determinar número ni chave del documento")
	ErrMissingIssuerData         = errors.New("faltan datos del emisor")
	ErrInvalidAmount             = errors.New("monto inválido")
	ErrExtractionService         = errors.New("error del servicio de extracción")
	ErrVendorPersistence         = errors.New("error al persistir proveedor")
	ErrDocumentPersistence       = errors.New("error al persistir documento")
	ErrInstallmentPersistence    = errors.New("error al persistir cuotas")
	ErrUnsupportedMedia          = errors.New("tipo de archivo no soportado")
	ErrPayloadTooLarge           = errors.New("archivo excede el tamaño máximo")
	ErrInstallmentAlreadySettled = errors.New("la cuota ya está pagada")
)

// Códigos estables para resultados por archivo y respuestas HTTP.
const (
	KindMalformedDocument       = "MALFORMED_DOCUMENT"
	KindMissingInvoiceStructure = "MISSING_INVOICE_STRUCTURE"
	KindUnidentifiableDocument  = "UNIDENTIFIABLE_DOCUMENT"
	KindMissingIssuerData       = "MISSING_ISSUER_DATA"
	KindInvalidAmount           = "INVALID_AMOUNT"
	KindExtractionService       = "EXTRACTION_SERVICE_ERROR"
	KindVendorPersistence       = "VENDOR_PERSISTENCE_ERROR"
	KindDocumentPersistence     = "DOCUMENT_PERSISTENCE_ERROR"
	KindInstallmentPersistence  = "INSTALLMENT_PERSISTENCE_ERROR"
	KindUnsupportedMedia        = "UNSUPPORTED_MEDIA"
	KindPayloadTooLarge         = "PAYLOAD_TOO_LARGE"
	KindDuplicate               = "DUPLICATE"
	KindNotFound                = "NOT_FOUND"
	KindInvalidInput            = "VALIDATION"
	KindConflict                = "CONFLICT"
	KindCanceled                = "CANCELED"
	KindInternal                = "INTERNAL"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrMalformedDocument, KindMalformedDocument},
	{ErrMissingInvoiceStructure, KindMissingInvoiceStructure},
	{ErrUnidentifiableDocument, KindUnidentifiableDocument},
	{ErrMissingIssuerData, KindMissingIssuerData},
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrExtractionService, KindExtractionService},
	{ErrVendorPersistence, KindVendorPersistence},
	{ErrInstallmentPersistence, KindInstallmentPersistence},
	{ErrDocumentPersistence, KindDocumentPersistence},
	{ErrUnsupportedMedia, KindUnsupportedMedia},
	{ErrPayloadTooLarge, KindPayloadTooLarge},
	{ErrDuplicate, KindDuplicate},
	{ErrNotFound, KindNotFound},
	{ErrInstallmentAlreadySettled, KindConflict},
	{ErrConflict, KindConflict},
	{ErrInvalidInput, KindInvalidInput},
}

// ErrorKind clasifica err en un código estable. Errores no reconocidos son INTERNAL.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
