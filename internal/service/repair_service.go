package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"kertas/internal/domain"
	"kertas/internal/logger"
	"kertas/internal/numbering"
	"kertas/internal/repository"
)

// RepairAction describes one change the repair batch made (or would make
// in dry-run mode)
type RepairAction struct {
	Base          string `json:"base"`
	Kind          string `json:"kind"` // merge, renumber, skip
	InvoiceID     string `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
	Detail        string `json:"detail"`
}

// RepairReport summarizes a duplicate-number repair run
type RepairReport struct {
	DryRun          bool           `json:"dryRun"`
	GroupsExamined  int            `json:"groupsExamined"`
	InvoicesMerged  int            `json:"invoicesMerged"`
	Renumbered      int            `json:"renumbered"`
	SkippedGroups   int            `json:"skippedGroups"`
	Actions         []RepairAction `json:"actions"`
	StartedAt       time.Time      `json:"startedAt"`
	DurationSeconds float64        `json:"durationSeconds"`
}

// Clean reports whether the run found nothing to change
func (r *RepairReport) Clean() bool {
	return r.GroupsExamined == 0
}

// Summary renders the report for operator consumption
func (r *RepairReport) Summary() string {
	var b strings.Builder
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(&b, "invoice number repair%s: %d duplicate group(s), %d invoice(s) merged, %d renumbered, %d group(s) skipped\n",
		mode, r.GroupsExamined, r.InvoicesMerged, r.Renumbered, r.SkippedGroups)
	for _, a := range r.Actions {
		fmt.Fprintf(&b, "  [%s] base %s invoice %s (%s): %s\n", a.Kind, a.Base, a.InvoiceNumber, a.InvoiceID, a.Detail)
	}
	return b.String()
}

// RepairService consolidates the historical duplicate-number cleanup into a
// single idempotent batch. It is an administrative operation: it reads a
// snapshot of the current numbers and must not run concurrently with live
// invoice creation outside a maintenance window.
type RepairService struct {
	invoices repository.InvoiceRepository
	log      zerolog.Logger
}

// NewRepairService creates a new RepairService
func NewRepairService(invoices repository.InvoiceRepository) *RepairService {
	return &RepairService{
		invoices: invoices,
		log:      logger.WithComponent("number_repair"),
	}
}

// RepairDuplicates walks all non-deleted invoices grouped by their
// normalized base number and resolves every group with more than one
// member:
//
//   - all members belong to one customer: merge the duplicates' items onto
//     the canonical invoice (the unsuffixed member, else the earliest) and
//     delete the emptied duplicates;
//   - members belong to different customers: the first member keeps its
//     number, every other member is renumbered strictly past the global
//     maximum.
//
// Each group is resolved in its own transaction. A failing group is
// logged, counted as skipped and does not abort the batch. Running the
// batch twice in a row yields an empty second report.
func (s *RepairService) RepairDuplicates(ctx context.Context, dryRun bool) (*RepairReport, error) {
	report := &RepairReport{
		DryRun:    dryRun,
		StartedAt: time.Now(),
	}
	defer func() {
		report.DurationSeconds = time.Since(report.StartedAt).Seconds()
	}()

	invoices, err := s.invoices.ListAllForRepair(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for repair: %w", err)
	}

	groups := make(map[string][]domain.Invoice)
	maxBase := int64(0)
	for _, inv := range invoices {
		base := numbering.Normalize(inv.InvoiceNumber)
		groups[base] = append(groups[base], inv)
		if n, ok := numbering.BaseNumber(inv.InvoiceNumber); ok && n > maxBase {
			maxBase = n
		}
	}

	// Deterministic order across runs
	bases := make([]string, 0, len(groups))
	for base, members := range groups {
		if len(members) > 1 {
			bases = append(bases, base)
		}
	}
	sort.Strings(bases)

	for _, base := range bases {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		members := groups[base]
		report.GroupsExamined++

		if sameCustomer(members) {
			maxBase = s.mergeGroup(ctx, base, members, dryRun, report, maxBase)
		} else {
			maxBase = s.renumberGroup(ctx, base, members, dryRun, report, maxBase)
		}
	}

	s.log.Info().
		Bool("dry_run", dryRun).
		Int("groups", report.GroupsExamined).
		Int("merged", report.InvoicesMerged).
		Int("renumbered", report.Renumbered).
		Int("skipped", report.SkippedGroups).
		Msg("duplicate repair finished")

	return report, nil
}

// mergeGroup folds a same-customer duplicate group onto its canonical
// invoice. Items are relocated before anything is deleted, so no invoice
// with a non-empty item set is ever dropped.
func (s *RepairService) mergeGroup(ctx context.Context, base string, members []domain.Invoice, dryRun bool, report *RepairReport, maxBase int64) int64 {
	canonical := pickCanonical(members)

	duplicateIDs := make([]string, 0, len(members)-1)
	for _, m := range members {
		if m.ID != canonical.ID {
			duplicateIDs = append(duplicateIDs, m.ID)
		}
	}

	if !dryRun {
		if err := s.invoices.MergeInvoices(ctx, canonical.ID, duplicateIDs); err != nil {
			s.log.Error().Err(err).
				Str("base", base).
				Str("canonical_id", canonical.ID).
				Msg("merge failed, skipping group")
			report.SkippedGroups++
			report.Actions = append(report.Actions, RepairAction{
				Base:          base,
				Kind:          "skip",
				InvoiceID:     canonical.ID,
				InvoiceNumber: canonical.InvoiceNumber,
				Detail:        fmt.Sprintf("merge failed: %v", err),
			})
			return maxBase
		}
	}

	report.InvoicesMerged += len(duplicateIDs)
	report.Actions = append(report.Actions, RepairAction{
		Base:          base,
		Kind:          "merge",
		InvoiceID:     canonical.ID,
		InvoiceNumber: canonical.InvoiceNumber,
		Detail:        fmt.Sprintf("merged %d duplicate(s) into this invoice", len(duplicateIDs)),
	})
	return maxBase
}

// renumberGroup resolves a group whose members belong to different
// customers: the first member keeps its number, every other member gets a
// fresh number advanced monotonically past the global maximum.
func (s *RepairService) renumberGroup(ctx context.Context, base string, members []domain.Invoice, dryRun bool, report *RepairReport, maxBase int64) int64 {
	keeper := pickCanonical(members)

	for _, m := range members {
		if m.ID == keeper.ID {
			continue
		}

		maxBase++
		newNumber := numbering.Format(maxBase)

		if !dryRun {
			if err := s.invoices.RenumberInvoice(ctx, m.ID, newNumber, time.Now()); err != nil {
				s.log.Error().Err(err).
					Str("base", base).
					Str("invoice_id", m.ID).
					Str("new_number", newNumber).
					Msg("renumber failed, skipping rest of group")
				report.SkippedGroups++
				report.Actions = append(report.Actions, RepairAction{
					Base:          base,
					Kind:          "skip",
					InvoiceID:     m.ID,
					InvoiceNumber: m.InvoiceNumber,
					Detail:        fmt.Sprintf("renumber failed: %v", err),
				})
				return maxBase
			}
		}

		report.Renumbered++
		report.Actions = append(report.Actions, RepairAction{
			Base:          base,
			Kind:          "renumber",
			InvoiceID:     m.ID,
			InvoiceNumber: m.InvoiceNumber,
			Detail:        fmt.Sprintf("reassigned to %s", newNumber),
		})
	}

	return maxBase
}

// pickCanonical chooses the group member that keeps its number: the one
// without a duplicate suffix if present, otherwise the earliest by
// creation time. Members arrive ordered by created_at.
func pickCanonical(members []domain.Invoice) domain.Invoice {
	for _, m := range members {
		if !numbering.HasSuffix(m.InvoiceNumber) {
			return m
		}
	}
	return members[0]
}

func sameCustomer(members []domain.Invoice) bool {
	for _, m := range members[1:] {
		if m.CustomerID != members[0].CustomerID {
			return false
		}
	}
	return true
}
