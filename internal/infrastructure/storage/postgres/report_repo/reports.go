// Package report_repo provides the PostgreSQL implementation of the
// posted-entry reporting surface.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gledger/internal/domain/ledger"
	"gledger/internal/domain/reports"
	"gledger/internal/infrastructure/storage/postgres"
)

// Compile-time check that ReportRepo implements reports.Repository.
var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo queries posted journal lines. Draft journals are invisible
// here regardless of filters.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// postedLines builds the joined entries-with-header select for the
// filter. Only posted journals qualify.
func (r *ReportRepo) postedLines(filter reports.EntryFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select().
		From("journal_entries e").
		Join("journals j ON j.id = e.journal_id").
		Where(squirrel.Eq{"j.tenant_id": filter.TenantID}).
		Where(squirrel.Eq{"j.status": ledger.JournalStatusPosted})

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"j.date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"j.date": *filter.DateTo})
	}
	if filter.AccountID != "" {
		q = q.Where(squirrel.Eq{"e.account_id": filter.AccountID})
	}
	if filter.Source != "" {
		q = q.Where(squirrel.Eq{"j.source": filter.Source})
	}
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"j.batch_id": *filter.BatchID})
	}
	if filter.EntityType != "" {
		q = q.Where(squirrel.Eq{"e.entity_type": filter.EntityType})
	}
	if filter.EntityID != "" {
		q = q.Where(squirrel.Eq{"e.entity_id": filter.EntityID})
	}

	return q
}

// Entries returns posted lines, newest journal first, line order
// preserved within a journal.
func (r *ReportRepo) Entries(ctx context.Context, filter reports.EntryFilter) (ledger.ListResult[reports.LedgerEntry], error) {
	result := ledger.ListResult[reports.LedgerEntry]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	base := r.postedLines(filter)
	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := base.Column("COUNT(*)").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count entries: %w", err)
	}

	q := base.Columns(
		"e.journal_id",
		"j.number AS journal_number",
		"j.date",
		"e.line_no",
		"e.account_id",
		"e.debit",
		"e.credit",
		"e.description",
		"j.source",
		"j.batch_id",
		"e.entity_type",
		"e.entity_id",
		"j.posted_at",
	).OrderBy("j.date DESC", "j.number DESC", "e.line_no ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list entries: %w", err)
	}

	return result, nil
}

// AccountTotals aggregates posted lines per account.
func (r *ReportRepo) AccountTotals(ctx context.Context, filter reports.EntryFilter) ([]reports.AccountTotal, error) {
	q := r.postedLines(filter).
		Columns(
			"e.account_id",
			"COUNT(*) AS entry_count",
			"COALESCE(SUM(e.debit), 0) AS total_debit",
			"COALESCE(SUM(e.credit), 0) AS total_credit",
		).
		GroupBy("e.account_id").
		OrderBy("e.account_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	totals := make([]reports.AccountTotal, 0)
	if err := pgxscan.Select(ctx, querier, &totals, sql, args...); err != nil {
		return nil, fmt.Errorf("account totals: %w", err)
	}
	return totals, nil
}
