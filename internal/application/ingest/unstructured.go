package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/payable"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/repository"
	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
	"github.com/jhoicas/fiscal-ingest-api/pkg/nfe"
)

// Parámetros de la búsqueda de cuotas para un comprobante de pago.
const (
	SettlementTolerancePct = 15
	SettlementCandidateCap = 20
)

// ExtractionConfig límites de la extracción asistida.
type ExtractionConfig struct {
	MaxBytes int64
	Timeout  time.Duration
}

// Draft borrador devuelto al usuario para revisión. Nada se persiste hasta que el
// borrador revisado vuelve por CommitObligation o Settle.
type Draft struct {
	Result             *entity.ExtractionResult
	PDF                *ports.PDFInfo
	VendorSuggestion   *Suggestion
	CategorySuggestion *Suggestion
	Duplicate          *DuplicateCheck
	Candidates         []*entity.SettlementCandidate
	SelectedCandidate  string // ID de cuota si hubo exactamente un candidato
}

// ReviewedInstallment cuota revisada por el usuario.
type ReviewedInstallment struct {
	AmountCents int64
	DueDate     *time.Time
}

// ReviewedObligation borrador NEW_OBLIGATION aprobado (y quizá editado) por el usuario.
type ReviewedObligation struct {
	DocumentNumber  string
	AccessKey       string
	IssuerTaxID     string
	IssuerName      string
	IssuerTradeName string
	TotalCents      int64
	IssueDate       time.Time
	Description     string
	CategoryID      string
	BranchID        string
	Installments    []ReviewedInstallment
	SplitCount      int // > 0 y sin cuotas: división mensual pareja
	SourceFile      string
}

// CommitResult resultado de confirmar un borrador.
type CommitResult struct {
	Document      *entity.PayableDocument
	Installments  []*entity.Installment
	Vendor        *entity.Vendor
	VendorCreated bool
}

// ExtractionService variante de la importación a partir de imágenes y PDF.
type ExtractionService struct {
	ai           ports.DocumentExtractionService
	pdf          ports.PDFInspector // opcional
	vendors      repository.VendorRepository
	categories   repository.CategoryRepository
	installments repository.InstallmentRepository
	detector     *DuplicateDetector
	resolver     *VendorResolver
	committer    *Committer
	cfg          ExtractionConfig
	log          *logger.Logger
	now          func() time.Time
}

// NewExtractionService construye el servicio. pdf puede ser nil.
func NewExtractionService(
	ai ports.DocumentExtractionService,
	pdf ports.PDFInspector,
	vendors repository.VendorRepository,
	categories repository.CategoryRepository,
	installments repository.InstallmentRepository,
	detector *DuplicateDetector,
	resolver *VendorResolver,
	committer *Committer,
	cfg ExtractionConfig,
	log *logger.Logger,
) *ExtractionService {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &ExtractionService{
		ai:           ai,
		pdf:          pdf,
		vendors:      vendors,
		categories:   categories,
		installments: installments,
		detector:     detector,
		resolver:     resolver,
		committer:    committer,
		cfg:          cfg,
		log:          log,
		now:          time.Now,
	}
}

// Extract valida el archivo, llama al servicio externo y arma el borrador con
// sugerencias (NEW_OBLIGATION) o cuotas candidatas (SETTLEMENT).
func (s *ExtractionService) Extract(ctx context.Context, in ports.DocumentInput) (*Draft, error) {
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("%w: archivo vacío", domain.ErrInvalidInput)
	}
	if int64(len(in.Content)) > s.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (máximo %d)", domain.ErrPayloadTooLarge, len(in.Content), s.cfg.MaxBytes)
	}
	in.MIMEType = normalizeMIME(in.MIMEType, in.Content)
	if in.MIMEType != "application/pdf" && !strings.HasPrefix(in.MIMEType, "image/") {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, in.MIMEType)
	}

	draft := &Draft{}
	if in.IsPDF() && s.pdf != nil {
		info, err := s.pdf.Inspect(in.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
		}
		draft.PDF = info
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result, err := s.ai.ExtractDocument(ctx, in)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionService) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionService, err)
	}
	if result == nil || !result.Intent.Valid() {
		return nil, fmt.Errorf("%w: respuesta sin intent reconocible", domain.ErrExtractionService)
	}
	draft.Result = result
	if draft.PDF != nil {
		note := fmt.Sprintf("PDF de %d página(s)", draft.PDF.Pages)
		if !draft.PDF.HasText {
			note += " sin capa de texto (escaneado)"
		}
		result.Notes = append(result.Notes, note)
	}

	switch result.Intent {
	case entity.IntentSettlement:
		if err := s.attachCandidates(ctx, draft); err != nil {
			return nil, err
		}
	case entity.IntentNewObligation:
		if err := s.attachSuggestions(ctx, draft); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Str("file", in.FileName).
		Str("intent", string(result.Intent)).
		Int("confidence", result.Confidence).
		Int("candidates", len(draft.Candidates)).
		Msg("[EXTRACT] borrador generado")
	return draft, nil
}

func (s *ExtractionService) attachCandidates(ctx context.Context, draft *Draft) error {
	p := draft.Result.Payment
	if p == nil {
		draft.Result.Notes = append(draft.Result.Notes, "comprobante sin datos de pago")
		return nil
	}
	target := entity.ToCents(p.Amount) - entity.ToCents(p.Interest) - entity.ToCents(p.Penalty) + entity.ToCents(p.Discount)
	if target <= 0 {
		draft.Result.Notes = append(draft.Result.Notes, "monto de pago no positivo, no se buscan cuotas")
		return nil
	}
	minCents, maxCents := ToleranceRange(target, SettlementTolerancePct)
	candidates, err := s.installments.FindSettlementCandidates(ctx, target, minCents, maxCents, SettlementCandidateCap)
	if err != nil {
		return fmt.Errorf("buscar cuotas candidatas: %w", err)
	}
	draft.Candidates = candidates
	if len(candidates) == 1 {
		draft.SelectedCandidate = candidates[0].Installment.ID
	}
	return nil
}

func (s *ExtractionService) attachSuggestions(ctx context.Context, draft *Draft) error {
	ob := draft.Result.Obligation
	if ob == nil {
		draft.Result.Notes = append(draft.Result.Notes, "documento sin datos de la obligación")
		return nil
	}
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		return fmt.Errorf("listar proveedores: %w", err)
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return fmt.Errorf("listar categorías: %w", err)
	}
	draft.VendorSuggestion = SuggestVendor(vendors, ob.IssuerTaxID, firstNonEmpty(ob.IssuerName, ob.IssuerTradeName))
	draft.CategorySuggestion = SuggestCategory(categories, ob.SuggestedCategory)

	if ob.DocumentNumber != "" || ob.AccessKey != "" {
		check, err := s.detector.Check(ctx, nfe.OnlyDigits(ob.AccessKey), ob.DocumentNumber)
		if err != nil {
			return err
		}
		if check.IsDuplicate {
			draft.Duplicate = &check
		}
	}
	return nil
}

// CommitObligation persiste un borrador revisado por el mismo camino que la importación
// XML: duplicados → proveedor → cronograma → escritura.
func (s *ExtractionService) CommitObligation(ctx context.Context, in ReviewedObligation) (*CommitResult, error) {
	accessKey := nfe.OnlyDigits(in.AccessKey)
	number := strings.TrimSpace(in.DocumentNumber)
	if number == "" {
		if n, ok := nfe.NumberFromKey(accessKey); ok {
			number = n
		}
	}
	if number == "" && accessKey == "" {
		return nil, domain.ErrUnidentifiableDocument
	}
	if in.TotalCents <= 0 {
		return nil, fmt.Errorf("%w: total %d", domain.ErrInvalidAmount, in.TotalCents)
	}
	issue := in.IssueDate
	if issue.IsZero() {
		issue = s.now()
	}

	check, err := s.detector.Check(ctx, accessKey, number)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentPersistence, err)
	}
	if check.IsDuplicate {
		return nil, fmt.Errorf("documento ya registrado (%s): %w", check.MatchedOn, domain.ErrDuplicate)
	}

	schedule, err := reviewedSchedule(in, issue)
	if err != nil {
		return nil, err
	}

	vendor, created, err := s.resolver.Resolve(ctx, VendorInput{
		TaxID:     in.IssuerTaxID,
		LegalName: in.IssuerName,
		TradeName: in.IssuerTradeName,
	})
	if err != nil {
		return nil, err
	}

	cfg := s.committer.Config()
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = Description(cfg.DescriptionLabel, number, vendor.LegalName)
	}
	referenceKey := accessKey
	if referenceKey == "" {
		referenceKey = number
	}
	doc, items, err := s.committer.Persist(ctx, PendingDocument{
		VendorID:       vendor.ID,
		ReferenceKey:   referenceKey,
		DocumentNumber: number,
		AccessKey:      accessKey,
		Description:    description,
		IssueDate:      issue,
		TotalCents:     in.TotalCents,
		CategoryID:     in.CategoryID,
		BranchID:       in.BranchID,
		Source:         entity.SourceAI,
		SourceFile:     in.SourceFile,
		Schedule:       schedule,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("reference_key", referenceKey).Int("installments", len(items)).Msg("[EXTRACT] borrador confirmado")
	return &CommitResult{Document: doc, Installments: items, Vendor: vendor, VendorCreated: created}, nil
}

func reviewedSchedule(in ReviewedObligation, issue time.Time) ([]payable.Entry, error) {
	if len(in.Installments) == 0 && in.SplitCount > 0 {
		return payable.SplitEvenly(in.TotalCents, in.SplitCount, issue)
	}
	raw := make([]entity.RawInstallment, len(in.Installments))
	for i, it := range in.Installments {
		raw[i] = entity.RawInstallment{Sequence: i + 1, Amount: entity.FromCents(it.AmountCents), DueDate: it.DueDate}
	}
	return payable.BuildSchedule(in.TotalCents, issue, raw)
}

// Settle registra la baixa de una cuota elegida por el usuario.
func (s *ExtractionService) Settle(ctx context.Context, in entity.Settlement) (*entity.Installment, error) {
	if in.InstallmentID == "" {
		return nil, fmt.Errorf("%w: installment_id es obligatorio", domain.ErrInvalidInput)
	}
	if in.PaidCents <= 0 {
		return nil, fmt.Errorf("%w: monto pagado %d", domain.ErrInvalidAmount, in.PaidCents)
	}
	if in.InterestCents < 0 || in.DiscountCents < 0 || in.PenaltyCents < 0 {
		return nil, fmt.Errorf("%w: intereses, descuento y multa no pueden ser negativos", domain.ErrInvalidAmount)
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = s.now()
	}

	inst, err := s.installments.GetByID(ctx, in.InstallmentID)
	if err != nil {
		return nil, fmt.Errorf("buscar cuota: %w", err)
	}
	if inst == nil {
		return nil, domain.ErrNotFound
	}
	if inst.Paid {
		return nil, domain.ErrInstallmentAlreadySettled
	}
	if err := s.installments.MarkPaid(ctx, &in); err != nil {
		return nil, err
	}

	paidAt := in.PaidAt
	inst.Paid = true
	inst.PaidAt = &paidAt
	inst.PaidCents = in.PaidCents
	inst.InterestCents = in.InterestCents
	inst.DiscountCents = in.DiscountCents
	inst.PenaltyCents = in.PenaltyCents
	s.log.Info().Str("installment_id", inst.ID).Int64("paid_cents", in.PaidCents).Msg("[EXTRACT] cuota pagada")
	return inst, nil
}

// ToleranceRange rango [target - pct%, target + pct%] en centavos.
func ToleranceRange(target int64, pct int64) (int64, int64) {
	delta := target * pct / 100
	return target - delta, target + delta
}

func normalizeMIME(declared string, content []byte) string {
	m := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(m, ";"); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if m == "" || m == "application/octet-stream" {
		m = http.DetectContentType(content)
		if i := strings.Index(m, ";"); i >= 0 {
			m = m[:i]
		}
	}
	if m == "image/jpg" {
		m = "image/jpeg"
	}
	return m
}
