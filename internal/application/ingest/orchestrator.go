package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/payable"
	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
)

// Orchestrator importa un lote de NF-e, un archivo a la vez:
//
//	Pending → Extracting → {ExtractFailed | Extracted} → DuplicateCheck →
//	{SkippedDuplicate | VendorResolution} → InstallmentSynthesis → Persisting →
//	{Committed | PersistFailed}
//
// Si las duplicatas no cuadran con el total, InstallmentSynthesis termina en
// ExtractFailed con Kind INVALID_AMOUNT: el dato inconsistente viene del documento
// y el archivo se corrige en origen, igual que una falla de extracción.
//
// La falla de un archivo nunca aborta el lote. Entre archivos hay una pausa fija
// y se revisa la cancelación del contexto.
type Orchestrator struct {
	extractor DocumentExtractor
	detector  *DuplicateDetector
	vendors   *VendorResolver
	committer *Committer
	archiver  ports.FileArchiver // opcional
	pause     time.Duration
	log       *logger.Logger
}

// NewOrchestrator construye el orquestador. archiver puede ser nil.
func NewOrchestrator(
	extractor DocumentExtractor,
	detector *DuplicateDetector,
	vendors *VendorResolver,
	committer *Committer,
	archiver ports.FileArchiver,
	pause time.Duration,
	log *logger.Logger,
) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		extractor: extractor,
		detector:  detector,
		vendors:   vendors,
		committer: committer,
		archiver:  archiver,
		pause:     pause,
		log:       log,
	}
}

// fileRun estado mutable de un archivo mientras recorre la máquina de estados.
type fileRun struct {
	file     entity.ImportFile
	res      entity.FileResult
	doc      *entity.FiscalDocument
	vendor   *entity.Vendor
	schedule []payable.Entry
}

// Run procesa files en orden y devuelve el resumen. progress puede ser nil.
func (o *Orchestrator) Run(ctx context.Context, files []entity.ImportFile, progress ProgressFunc) *entity.BatchSummary {
	summary := &entity.BatchSummary{
		BatchID:   uuid.New().String(),
		StartedAt: time.Now(),
		Total:     len(files),
		Files:     make([]entity.FileResult, 0, len(files)),
	}
	log := o.log.With().Str("batch_id", summary.BatchID).Logger()
	log.Info().Int("files", len(files)).Msg("[IMPORT] inicio de lote")

	for i, f := range files {
		var res entity.FileResult
		if err := ctx.Err(); err != nil {
			res = canceledResult(f.Name)
		} else {
			res = o.processFile(ctx, f)
		}
		summary.Add(res)

		ev := log.Info()
		if res.Outcome == entity.OutcomeFailed {
			ev = log.Warn()
		}
		ev.Str("file", f.Name).
			Str("state", string(res.State)).
			Str("kind", res.Kind).
			Str("reference_key", res.ReferenceKey).
			Msg("[IMPORT] " + res.Message)

		if progress != nil {
			done := i + 1
			progress(Progress{
				Done:    done,
				Total:   len(files),
				Percent: done * 100 / len(files),
				File:    f.Name,
				Outcome: res.Outcome,
			})
		}

		if i < len(files)-1 && ctx.Err() == nil {
			o.wait(ctx)
		}
	}

	summary.FinishedAt = time.Now()
	log.Info().
		Int("committed", summary.Committed).
		Int("duplicates", summary.Duplicates).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("[IMPORT] lote finalizado")
	return summary
}

// ProcessFile ejecuta la máquina de estados para un solo archivo.
func (o *Orchestrator) ProcessFile(ctx context.Context, f entity.ImportFile) entity.FileResult {
	return o.processFile(ctx, f)
}

func (o *Orchestrator) processFile(ctx context.Context, f entity.ImportFile) entity.FileResult {
	run := &fileRun{
		file: f,
		res:  entity.FileResult{FileName: f.Name, State: entity.StatePending},
	}
	for !run.res.State.Terminal() {
		next := o.step(ctx, run)
		o.log.Debug().
			Str("file", f.Name).
			Str("from", string(run.res.State)).
			Str("to", string(next)).
			Msg("[IMPORT] transición")
		run.res.State = next
	}
	return run.res
}

// step ejecuta el trabajo del estado actual y devuelve el siguiente.
func (o *Orchestrator) step(ctx context.Context, run *fileRun) entity.FileState {
	switch run.res.State {
	case entity.StatePending:
		return entity.StateExtracting

	case entity.StateExtracting:
		doc, err := o.extractor.Extract(run.file.Content, run.file.Name)
		if err != nil {
			run.fail(err)
			return entity.StateExtractFailed
		}
		run.doc = doc
		run.res.ReferenceKey = doc.ReferenceKey()
		run.res.DocumentNumber = doc.DocumentNumber
		run.res.TotalCents = doc.TotalCents()
		return entity.StateExtracted

	case entity.StateExtracted:
		return entity.StateDuplicateCheck

	case entity.StateDuplicateCheck:
		check, err := o.detector.Check(ctx, run.doc.AccessKey, run.doc.DocumentNumber)
		if err != nil {
			run.fail(fmt.Errorf("%w: %v", domain.ErrDocumentPersistence, err))
			return entity.StatePersistFailed
		}
		if check.IsDuplicate {
			run.duplicate(check.MatchedOn)
			return entity.StateSkippedDuplicate
		}
		return entity.StateVendorResolution

	case entity.StateVendorResolution:
		vendor, created, err := o.vendors.Resolve(ctx, VendorInput{
			TaxID:     run.doc.IssuerTaxID,
			LegalName: run.doc.IssuerLegalName,
			TradeName: run.doc.IssuerTradeName,
		})
		if err != nil {
			run.fail(err)
			return entity.StatePersistFailed
		}
		run.vendor = vendor
		run.res.VendorID = vendor.ID
		run.res.VendorCreated = created
		return entity.StateInstallmentSynthesis

	case entity.StateInstallmentSynthesis:
		schedule, err := payable.BuildSchedule(run.doc.TotalCents(), run.doc.IssueDate, run.doc.Installments)
		if err != nil {
			run.fail(err)
			return entity.StateExtractFailed
		}
		run.schedule = schedule
		return entity.StatePersisting

	case entity.StatePersisting:
		cfg := o.committer.Config()
		doc, _, err := o.committer.Persist(ctx, PendingDocument{
			VendorID:       run.vendor.ID,
			ReferenceKey:   run.doc.ReferenceKey(),
			DocumentNumber: run.doc.DocumentNumber,
			AccessKey:      run.doc.AccessKey,
			Description:    Description(cfg.DescriptionLabel, run.doc.DocumentNumber, run.doc.IssuerLegalName),
			IssueDate:      run.doc.IssueDate,
			TotalCents:     run.doc.TotalCents(),
			Source:         entity.SourceXML,
			SourceFile:     run.file.Name,
			Schedule:       run.schedule,
		})
		if err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				run.duplicate(MatchedOnUniqueConstraint)
				return entity.StateSkippedDuplicate
			}
			run.fail(err)
			return entity.StatePersistFailed
		}
		run.res.DocumentID = doc.ID
		run.res.InstallmentCount = doc.InstallmentCount
		run.res.Outcome = entity.OutcomeCommitted
		run.res.Message = fmt.Sprintf("%s importada con %d cuota(s)", DescriptionKey(cfg.DescriptionLabel, doc.DocumentNumber), doc.InstallmentCount)
		o.archive(ctx, run, doc.ReferenceKey)
		return entity.StateCommitted
	}

	run.fail(fmt.Errorf("estado inesperado %s", run.res.State))
	return entity.StatePersistFailed
}

// archive guarda el XML original; una falla solo se registra.
func (o *Orchestrator) archive(ctx context.Context, run *fileRun, referenceKey string) {
	if o.archiver == nil {
		return
	}
	if err := o.archiver.Archive(ctx, referenceKey+".xml", run.file.Content); err != nil {
		o.log.Warn().Err(err).Str("file", run.file.Name).Msg("[IMPORT] no se pudo archivar el XML")
	}
}

func (o *Orchestrator) wait(ctx context.Context) {
	if o.pause <= 0 {
		return
	}
	t := time.NewTimer(o.pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (r *fileRun) fail(err error) {
	r.res.Outcome = entity.OutcomeFailed
	r.res.Kind = domain.ErrorKind(err)
	r.res.Message = err.Error()
}

func (r *fileRun) duplicate(matchedOn string) {
	r.res.Outcome = entity.OutcomeDuplicate
	r.res.Kind = domain.KindDuplicate
	r.res.MatchedOn = matchedOn
	r.res.Message = fmt.Sprintf("documento %s ya registrado (%s)", r.res.ReferenceKey, matchedOn)
}

func canceledResult(name string) entity.FileResult {
	return entity.FileResult{
		FileName: name,
		State:    entity.StatePending,
		Outcome:  entity.OutcomeFailed,
		Kind:     domain.KindCanceled,
		Message:  "importación cancelada antes de procesar el archivo",
	}
}
