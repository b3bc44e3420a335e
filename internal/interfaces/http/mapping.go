package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/dto"
	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
)

const dayLayout = "2006-01-02"

// parseDay acepta "" (nil) o AAAA-MM-DD.
func parseDay(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe tener formato AAAA-MM-DD", domain.ErrInvalidInput, field)
	}
	return &t, nil
}

func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dayLayout)
	return &s
}

func toBatchResponse(s *entity.BatchSummary) dto.BatchSummaryResponse {
	out := dto.BatchSummaryResponse{
		BatchID:    s.BatchID,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Total:      s.Total,
		Committed:  s.Committed,
		Duplicates: s.Duplicates,
		Failed:     s.Failed,
		Files:      make([]dto.FileResultResponse, len(s.Files)),
	}
	for i, f := range s.Files {
		out.Files[i] = dto.FileResultResponse{
			FileName:         f.FileName,
			State:            string(f.State),
			Outcome:          string(f.Outcome),
			Kind:             f.Kind,
			Message:          f.Message,
			ReferenceKey:     f.ReferenceKey,
			DocumentNumber:   f.DocumentNumber,
			DocumentID:       f.DocumentID,
			VendorID:         f.VendorID,
			VendorCreated:    f.VendorCreated,
			InstallmentCount: f.InstallmentCount,
			TotalCents:       f.TotalCents,
			MatchedOn:        f.MatchedOn,
		}
	}
	return out
}

func toDraftResponse(d *ingest.Draft) dto.DraftResponse {
	r := d.Result
	out := dto.DraftResponse{
		Intent:             string(r.Intent),
		Confidence:         r.Confidence,
		Notes:              r.Notes,
		VendorSuggestion:   toSuggestion(d.VendorSuggestion),
		CategorySuggestion: toSuggestion(d.CategorySuggestion),
		SelectedCandidate:  d.SelectedCandidate,
	}
	if out.Notes == nil {
		out.Notes = []string{}
	}
	if d.PDF != nil {
		out.PDF = &dto.PDFInfoResponse{Pages: d.PDF.Pages, HasText: d.PDF.HasText}
	}
	if d.Duplicate != nil {
		out.Duplicate = &dto.DuplicateResponse{IsDuplicate: d.Duplicate.IsDuplicate, MatchedOn: d.Duplicate.MatchedOn}
	}
	if o := r.Obligation; o != nil {
		ob := &dto.ObligationDraftResponse{
			DocumentNumber:    o.DocumentNumber,
			AccessKey:         o.AccessKey,
			IssuerTaxID:       o.IssuerTaxID,
			IssuerName:        o.IssuerName,
			IssuerTradeName:   o.IssuerTradeName,
			TotalAmount:       o.TotalAmount,
			IssueDate:         formatDay(o.IssueDate),
			Description:       o.Description,
			SuggestedCategory: o.SuggestedCategory,
			Installments:      make([]dto.InstallmentDraft, len(o.Installments)),
		}
		for i, inst := range o.Installments {
			ob.Installments[i] = dto.InstallmentDraft{
				Sequence: inst.Sequence,
				Label:    inst.Label,
				Amount:   inst.Amount,
				DueDate:  formatDay(inst.DueDate),
			}
		}
		out.Obligation = ob
	}
	if p := r.Payment; p != nil {
		out.Payment = &dto.PaymentDraftResponse{
			Amount:        p.Amount,
			PaidAt:        formatDay(p.PaidAt),
			Interest:      p.Interest,
			Discount:      p.Discount,
			Penalty:       p.Penalty,
			ReferenceHint: p.ReferenceHint,
		}
	}
	for _, c := range d.Candidates {
		out.Candidates = append(out.Candidates, dto.CandidateResponse{
			InstallmentID:  c.Installment.ID,
			DocumentID:     c.Installment.DocumentID,
			SequenceNumber: c.Installment.SequenceNumber,
			AmountCents:    c.Installment.AmountCents,
			DueDate:        c.Installment.DueDate.Format(dayLayout),
			DocumentNumber: c.DocumentNumber,
			Description:    c.Description,
			VendorName:     c.VendorName,
			Deviation:      c.Deviation,
		})
	}
	return out
}

func toSuggestion(s *ingest.Suggestion) *dto.SuggestionResponse {
	if s == nil {
		return nil
	}
	return &dto.SuggestionResponse{ID: s.ID, Name: s.Name, MatchedBy: s.MatchedBy}
}

func toInstallmentResponse(i *entity.Installment) dto.InstallmentResponse {
	return dto.InstallmentResponse{
		ID:             i.ID,
		DocumentID:     i.DocumentID,
		SequenceNumber: i.SequenceNumber,
		AmountCents:    i.AmountCents,
		DueDate:        i.DueDate.Format(dayLayout),
		Paid:           i.Paid,
		PaidAt:         i.PaidAt,
		PaidCents:      i.PaidCents,
		InterestCents:  i.InterestCents,
		DiscountCents:  i.DiscountCents,
		PenaltyCents:   i.PenaltyCents,
	}
}

func toCommitResponse(r *ingest.CommitResult) dto.CommitObligationResponse {
	out := dto.CommitObligationResponse{
		DocumentID:    r.Document.ID,
		ReferenceKey:  r.Document.ReferenceKey,
		Description:   r.Document.Description,
		TotalCents:    r.Document.TotalCents,
		VendorID:      r.Vendor.ID,
		VendorCreated: r.VendorCreated,
		Installments:  make([]dto.InstallmentResponse, len(r.Installments)),
	}
	for i, inst := range r.Installments {
		out.Installments[i] = toInstallmentResponse(inst)
	}
	return out
}

func toReviewedObligation(in dto.CommitObligationRequest) (ingest.ReviewedObligation, error) {
	out := ingest.ReviewedObligation{
		DocumentNumber:  in.DocumentNumber,
		AccessKey:       in.AccessKey,
		IssuerTaxID:     in.IssuerTaxID,
		IssuerName:      in.IssuerName,
		IssuerTradeName: in.IssuerTradeName,
		TotalCents:      in.TotalCents,
		Description:     in.Description,
		CategoryID:      in.CategoryID,
		BranchID:        in.BranchID,
		SplitCount:      in.SplitCount,
		SourceFile:      in.SourceFile,
	}
	issue, err := parseDay("issue_date", in.IssueDate)
	if err != nil {
		return out, err
	}
	if issue != nil {
		out.IssueDate = *issue
	}
	for i, it := range in.Installments {
		due, err := parseDay(fmt.Sprintf("installments[%d].due_date", i), it.DueDate)
		if err != nil {
			return out, err
		}
		out.Installments = append(out.Installments, ingest.ReviewedInstallment{AmountCents: it.AmountCents, DueDate: due})
	}
	return out, nil
}
