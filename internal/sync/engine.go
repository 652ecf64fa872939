// Package sync implements the reconciliation core: one pass selects
// marketplace supply orders, resolves their items against the ERP catalog
// and mirrors each order into a linked pair of ERP documents exactly once.
package sync

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ozonms/fbosync/internal/core/domain"
	"github.com/ozonms/fbosync/internal/metrics"
)

// Config holds the knobs affecting pass behavior.
type Config struct {
	// MinDate is the earliest delivery timeslot the sync will consider.
	MinDate time.Time
	// LookbackDays bounds how far back from today a timeslot may lie.
	LookbackDays int
	// DryRun suppresses document creation; lookups, decisions and counts
	// still run.
	DryRun bool
}

// Report aggregates one pass's outcomes.
type Report struct {
	Created int
	Skipped int
	Failed  int
}

// Engine reconciles marketplace supply orders into ERP documents: at most
// one sales document and one linked transfer document per order number.
type Engine struct {
	source   OrderSource
	docs     Documents
	resolver *Resolver
	cfg      Config
	// classify labels failed document writes; swappable so the heuristic
	// can be tightened without touching the pass logic.
	classify func(error) Outcome
	log      *slog.Logger
}

// New creates an engine.
func New(source OrderSource, docs Documents, resolver *Resolver, cfg Config, log *slog.Logger) *Engine {
	return &Engine{
		source:   source,
		docs:     docs,
		resolver: resolver,
		cfg:      cfg,
		classify: Classify,
		log:      log,
	}
}

// RunPass reconciles all candidate orders once. Safe to call repeatedly: a
// pass that finds nothing new creates nothing. Every order is fully
// finalized (created, skipped or forgotten) before the next one is examined;
// cancellation takes effect between orders, never mid-order.
func (e *Engine) RunPass(ctx context.Context, mem *domain.Memory) (Report, error) {
	start := time.Now()
	windowStart := e.windowStart(start)

	var report Report

	ids, err := e.listAll(ctx)
	if err != nil {
		metrics.SyncPasses.WithLabelValues("error").Inc()
		return report, err
	}

	orders, err := e.source.GetOrders(ctx, ids)
	if err != nil {
		metrics.SyncPasses.WithLabelValues("error").Inc()
		return report, err
	}

	e.log.Info("pass started",
		"orders", len(orders),
		"window_start", windowStart.Format("2006-01-02"),
		"dry_run", e.cfg.DryRun,
	)

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			metrics.SyncPasses.WithLabelValues("cancelled").Inc()
			return report, err
		}
		// In-flight downstream calls are never cancelled mid-order; a stop
		// takes effect at the next iteration.
		e.processOrder(context.WithoutCancel(ctx), order, mem, windowStart, &report)
	}

	metrics.SyncPasses.WithLabelValues("ok").Inc()
	metrics.SyncPassDuration.Observe(time.Since(start).Seconds())
	metrics.MemorySize.Set(float64(mem.Len()))

	e.log.Info("pass complete",
		"created", report.Created,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

func (e *Engine) listAll(ctx context.Context) ([]string, error) {
	var ids []string
	cursor := ""
	for {
		page, next, err := e.source.ListOrders(ctx, domain.WatchedStates(), cursor)
		if err != nil {
			return nil, err
		}
		ids = append(ids, page...)
		if next == "" {
			return ids, nil
		}
		cursor = next
	}
}

// windowStart computes the earliest acceptable timeslot, at UTC midnight:
// whichever is later of MinDate and today minus LookbackDays.
func (e *Engine) windowStart(now time.Time) time.Time {
	lookback := now.UTC().AddDate(0, 0, -e.cfg.LookbackDays)
	lookback = time.Date(lookback.Year(), lookback.Month(), lookback.Day(), 0, 0, 0, 0, time.UTC)
	if e.cfg.MinDate.After(lookback) {
		return e.cfg.MinDate
	}
	return lookback
}

func (e *Engine) skip(rep *Report, reason string) {
	rep.Skipped++
	metrics.OrdersSkipped.WithLabelValues(reason).Inc()
}

func (e *Engine) fail(rep *Report, reason string) {
	rep.Failed++
	metrics.OrdersFailed.WithLabelValues(reason).Inc()
}

func (e *Engine) processOrder(ctx context.Context, order domain.SupplyOrder, mem *domain.Memory, windowStart time.Time, rep *Report) {
	log := e.log.With("order_id", order.ID, "order_number", order.Number)

	if order.ID == "" || order.Number == "" {
		log.Warn("order missing identifiers", "state", order.State)
		e.skip(rep, "missing_ids")
		return
	}

	if order.State.Cancelled() {
		if _, ok := mem.Get(order.ID); ok {
			mem.Forget(order.ID)
			log.Info("order cancelled, dropping local state", "state", order.State)
		}
		e.skip(rep, "cancelled")
		return
	}

	if entry, ok := mem.Get(order.ID); ok &&
		entry.State == order.State && order.State == domain.OrderStateReadyToSupply {
		log.Debug("steady state, nothing to do")
		e.skip(rep, "steady_state")
		return
	}

	if order.TimeslotFrom.IsZero() {
		log.Info("order has no timeslot, skipping")
		e.skip(rep, "no_timeslot")
		return
	}
	if order.TimeslotFrom.Before(windowStart) {
		log.Info("timeslot before window, skipping", "timeslot_from", order.TimeslotFrom)
		e.skip(rep, "outside_window")
		return
	}

	if order.BundleID == "" {
		log.Error("order has no bundle id, cannot resolve items")
		e.skip(rep, "no_bundle")
		return
	}

	items, err := e.source.BundleItems(ctx, order.BundleID)
	if err != nil {
		log.Error("failed to fetch bundle items", "error", err)
		e.fail(rep, "bundle_fetch")
		return
	}

	lines, resolveErrs, err := e.resolveItems(ctx, items)
	if err != nil {
		log.Error("catalog lookup failed", "error", err)
		e.fail(rep, "catalog")
		return
	}
	if len(resolveErrs) > 0 {
		log.Error("resolution failed, skipping order", "errors", strings.Join(resolveErrs, "; "))
		e.skip(rep, "resolution")
		return
	}
	if len(lines) == 0 {
		log.Error("order bundle has no usable items")
		e.skip(rep, "empty_bundle")
		return
	}

	description := strings.Trim(order.Number+" - "+order.Warehouse, " -")

	e.ensureDocuments(ctx, order, description, lines, mem, rep, log)
}

// resolveItems expands every bundle line into document line items. Semantic
// resolution failures are accumulated so the order's log line carries all of
// them; a transport failure aborts immediately.
func (e *Engine) resolveItems(ctx context.Context, items []domain.BundleItem) ([]domain.LineItem, []string, error) {
	var lines []domain.LineItem
	var resolveErrs []string

	for _, item := range items {
		rec, err := e.resolver.Resolve(ctx, item.OfferID)
		if err != nil {
			var rerr *ResolveError
			if errors.As(err, &rerr) {
				resolveErrs = append(resolveErrs, rerr.Error())
				continue
			}
			return nil, nil, err
		}
		lines = append(lines, rec.Expand(item.Quantity)...)
	}

	return lines, resolveErrs, nil
}

func (e *Engine) ensureDocuments(ctx context.Context, order domain.SupplyOrder, description string, lines []domain.LineItem, mem *domain.Memory, rep *Report, log *slog.Logger) {
	salesRef, ok := e.ensureSalesDoc(ctx, order, description, lines, mem, rep, log)
	if !ok {
		return
	}

	existing, err := e.docs.FindDocumentByName(ctx, domain.DocKindTransfer, order.Number)
	if err != nil {
		log.Error("failed to look up transfer document", "error", err)
		e.fail(rep, "transfer_lookup")
		return
	}
	if existing != nil {
		// The order's stock was already moved, so it is fully synced
		// elsewhere; stop tracking it.
		log.Info("transfer document already exists, forgetting order", "doc_id", existing.ID)
		mem.Forget(order.ID)
		e.skip(rep, "transfer_exists")
		return
	}

	moveRef, outcome := e.createTransfer(ctx, order, description, lines, salesRef, log)
	switch outcome {
	case transferConflict:
		mem.Forget(order.ID)
		e.skip(rep, "transfer_conflict")
		return
	case transferFailed:
		e.fail(rep, "transfer_doc")
		return
	}

	mem.Put(order.ID, domain.MemoryEntry{
		OrderNumber:   order.Number,
		State:         order.State,
		CustomerOrder: &salesRef,
		Move:          &moveRef,
		UpdatedAt:     time.Now().UTC(),
	})
	rep.Created++
	metrics.OrdersCreated.Inc()
	log.Info("order synced", "customerorder_id", salesRef.ID, "move_id", moveRef.ID)
}

// ensureSalesDoc returns the sales document reference for the order,
// reusing an existing document or creating one. The bool result reports
// whether processing should continue to the transfer stage.
func (e *Engine) ensureSalesDoc(ctx context.Context, order domain.SupplyOrder, description string, lines []domain.LineItem, mem *domain.Memory, rep *Report, log *slog.Logger) (domain.DocRef, bool) {
	existing, err := e.docs.FindDocumentByName(ctx, domain.DocKindSales, order.Number)
	if err != nil {
		log.Error("failed to look up sales document", "error", err)
		e.fail(rep, "sales_lookup")
		return domain.DocRef{}, false
	}
	if existing != nil {
		log.Info("sales document already exists, reusing", "doc_id", existing.ID)
		return *existing, true
	}

	if e.cfg.DryRun {
		log.Info("dry run: would create sales document", "positions", len(lines))
		return syntheticRef(), true
	}

	ref, err := e.docs.CreateSalesDocument(ctx, domain.SalesDocument{
		Name:        order.Number,
		Description: description,
		PlannedAt:   order.TimeslotFrom,
		Items:       lines,
	})
	if err != nil {
		if e.classify(err) == OutcomeConflict {
			// Lost a race with another writer; the document exists, so the
			// order is synced elsewhere.
			log.Info("sales document name conflict, forgetting order", "error", err)
			mem.Forget(order.ID)
			e.skip(rep, "sales_conflict")
			return domain.DocRef{}, false
		}
		log.Error("failed to create sales document", "error", err)
		e.fail(rep, "sales_doc")
		return domain.DocRef{}, false
	}

	log.Info("sales document created", "doc_id", ref.ID)
	return ref, true
}

type transferOutcome int

const (
	transferCreated transferOutcome = iota
	transferConflict
	transferFailed
)

func (e *Engine) createTransfer(ctx context.Context, order domain.SupplyOrder, description string, lines []domain.LineItem, salesRef domain.DocRef, log *slog.Logger) (domain.DocRef, transferOutcome) {
	doc := domain.TransferDocument{
		Name:        order.Number,
		Description: description,
		SalesRef:    salesRef,
		Items:       lines,
	}

	if e.cfg.DryRun {
		log.Info("dry run: would create transfer document", "positions", len(lines))
		return syntheticRef(), transferCreated
	}

	ref, err := e.docs.CreateTransferDocument(ctx, doc)
	if err == nil {
		log.Info("transfer document created", "doc_id", ref.ID)
		return ref, transferCreated
	}

	switch e.classify(err) {
	case OutcomeConflict:
		log.Info("transfer document name conflict, forgetting order", "error", err)
		return domain.DocRef{}, transferConflict
	case OutcomeStock:
		// Exactly one retry, as a non-binding document that reserves nothing.
		log.Warn("insufficient stock, retrying transfer as non-binding", "error", err)
		doc.NonBinding = true
		ref, err = e.docs.CreateTransferDocument(ctx, doc)
		if err != nil {
			log.Error("non-binding transfer retry failed", "error", err)
			return domain.DocRef{}, transferFailed
		}
		log.Info("transfer document created non-binding", "doc_id", ref.ID)
		return ref, transferCreated
	}

	log.Error("failed to create transfer document", "error", err)
	return domain.DocRef{}, transferFailed
}

// syntheticRef labels dry-run entries so they are recognizable in memory
// dumps and never mistaken for real documents.
func syntheticRef() domain.DocRef {
	return domain.DocRef{ID: "dry-" + uuid.NewString()}
}
