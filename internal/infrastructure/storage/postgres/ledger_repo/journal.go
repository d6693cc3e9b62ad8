// Package ledger_repo provides PostgreSQL implementations of the ledger
// repositories. Tenants share one database; every query is scoped by
// tenant_id.
package ledger_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"gledger/internal/core/apperror"
	"gledger/internal/core/id"
	"gledger/internal/domain/ledger"
	"gledger/internal/infrastructure/storage/postgres"
)

const (
	journalsTable = "journals"
	entriesTable  = "journal_entries"
)

var journalColumns = postgres.ExtractDBColumns[ledger.Journal]()

var entryColumns = []string{
	"line_id", "line_no", "account_id", "debit", "credit",
	"description", "entity_type", "entity_id",
}

// Compile-time check that JournalRepo implements ledger.JournalRepository.
var _ ledger.JournalRepository = (*JournalRepo)(nil)

// JournalRepo persists journals and their entry lines.
type JournalRepo struct {
	txManager *postgres.TxManager
}

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txManager *postgres.TxManager) *JournalRepo {
	return &JournalRepo{txManager: txManager}
}

func (r *JournalRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *JournalRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(journalColumns...).
		From(journalsTable)
}

// Create inserts the journal header and its entries.
func (r *JournalRepo) Create(ctx context.Context, j *ledger.Journal) error {
	data := postgres.StructToMap(j)
	filtered := make(map[string]any, len(journalColumns))
	for _, col := range journalColumns {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Insert(journalsTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert journal: %w", err)
	}

	return r.insertEntries(ctx, querier, j.ID, j.Entries)
}

// Get retrieves a journal with its entries.
func (r *JournalRepo) Get(ctx context.Context, journalID id.ID) (*ledger.Journal, error) {
	return r.get(ctx, journalID, false)
}

// GetForUpdate retrieves a journal with its entries, row-locking the header.
func (r *JournalRepo) GetForUpdate(ctx context.Context, journalID id.ID) (*ledger.Journal, error) {
	return r.get(ctx, journalID, true)
}

func (r *JournalRepo) get(ctx context.Context, journalID id.ID, forUpdate bool) (*ledger.Journal, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": journalID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	j := &ledger.Journal{}
	if err := pgxscan.Get(ctx, querier, j, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("journal", journalID.String())
		}
		return nil, fmt.Errorf("get journal: %w", err)
	}

	entries, err := r.loadEntries(ctx, journalID)
	if err != nil {
		return nil, err
	}
	j.Entries = entries
	return j, nil
}

// Update writes the header with an optimistic version check and replaces
// the entry lines. The stored version must equal j.Version; on success
// the in-memory journal is advanced to the committed version.
func (r *JournalRepo) Update(ctx context.Context, j *ledger.Journal) error {
	data := postgres.StructToMap(j)

	filtered := make(map[string]any, len(journalColumns))
	for _, col := range journalColumns {
		switch col {
		case "id", "tenant_id", "created_at", "created_by":
			continue
		case "version", "updated_at":
			continue // managed by repo
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Update(journalsTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": j.ID}).
		Where(squirrel.Eq{"version": j.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update journal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("journal", j.ID.String())
	}

	if _, err := querier.Exec(ctx, "DELETE FROM "+entriesTable+" WHERE journal_id = $1", j.ID); err != nil {
		return fmt.Errorf("clear journal entries: %w", err)
	}
	if err := r.insertEntries(ctx, querier, j.ID, j.Entries); err != nil {
		return err
	}

	j.Touch()
	return nil
}

// Delete removes the journal and its entries.
func (r *JournalRepo) Delete(ctx context.Context, journalID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+entriesTable+" WHERE journal_id = $1", journalID); err != nil {
		return fmt.Errorf("delete journal entries: %w", err)
	}

	result, err := querier.Exec(ctx, "DELETE FROM "+journalsTable+" WHERE id = $1", journalID)
	if err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("journal", journalID.String())
	}
	return nil
}

// List retrieves journal headers matching the filter. Entries are not
// loaded.
func (r *JournalRepo) List(ctx context.Context, filter ledger.JournalFilter) (ledger.ListResult[*ledger.Journal], error) {
	result := ledger.ListResult[*ledger.Journal]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().Where(squirrel.Eq{"tenant_id": filter.TenantID})

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Source != "" {
		q = q.Where(squirrel.Eq{"source": filter.Source})
	}
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"batch_id": *filter.BatchID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"memo": pattern},
		})
	}

	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count journals: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy, journalColumns, "date DESC")
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

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
		return result, fmt.Errorf("list journals: %w", err)
	}

	return result, nil
}

// ListByBatch retrieves the batch members with entries, ordered by
// number, row-locking each header.
func (r *JournalRepo) ListByBatch(ctx context.Context, batchID id.ID) ([]*ledger.Journal, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("number ASC").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var journals []*ledger.Journal
	if err := pgxscan.Select(ctx, querier, &journals, sql, args...); err != nil {
		return nil, fmt.Errorf("list batch journals: %w", err)
	}
	if len(journals) == 0 {
		return journals, nil
	}

	ids := make([]id.ID, len(journals))
	byID := make(map[id.ID]*ledger.Journal, len(journals))
	for i, j := range journals {
		ids[i] = j.ID
		byID[j.ID] = j
	}

	type entryRow struct {
		JournalID id.ID `db:"journal_id"`
		ledger.Entry
	}

	cols := append([]string{"journal_id"}, entryColumns...)
	entrySQL, entryArgs, err := r.builder().
		Select(cols...).
		From(entriesTable).
		Where(squirrel.Eq{"journal_id": ids}).
		OrderBy("journal_id", "line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entries query: %w", err)
	}

	var rows []entryRow
	if err := pgxscan.Select(ctx, querier, &rows, entrySQL, entryArgs...); err != nil {
		return nil, fmt.Errorf("load batch entries: %w", err)
	}
	for _, row := range rows {
		j := byID[row.JournalID]
		j.Entries = append(j.Entries, row.Entry)
	}

	return journals, nil
}

// ClearBatch releases every journal held by the batch.
func (r *JournalRepo) ClearBatch(ctx context.Context, batchID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		UPDATE `+journalsTable+`
		SET batch_id = NULL, version = version + 1, updated_at = NOW()
		WHERE batch_id = $1
	`, batchID)
	if err != nil {
		return fmt.Errorf("clear batch members: %w", err)
	}
	return nil
}

func (r *JournalRepo) loadEntries(ctx context.Context, journalID id.ID) ([]ledger.Entry, error) {
	sql, args, err := r.builder().
		Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"journal_id": journalID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entries query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	entries := make([]ledger.Entry, 0)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("load journal entries: %w", err)
	}
	return entries, nil
}

func (r *JournalRepo) insertEntries(ctx context.Context, querier postgres.Querier, journalID id.ID, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO `+entriesTable+` (journal_id, line_id, line_no, account_id, debit, credit, description, entity_type, entity_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, journalID, e.LineID, e.LineNo, e.AccountID, e.Debit, e.Credit, e.Description, e.EntityType, e.EntityID)
	}

	sender, ok := querier.(interface {
		SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	})
	if !ok {
		return fmt.Errorf("querier does not support batch insert")
	}

	results := sender.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert journal entry: %w", err)
		}
	}
	return nil
}

// parseOrderBy validates a "field", "-field" or "+field" ordering token
// against the allowed columns.
func parseOrderBy(orderBy string, allowedCols []string, fallback string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return fallback, nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	for _, col := range allowedCols {
		if col == field {
			return field + " " + direction, nil
		}
	}

	return "", apperror.NewValidation("invalid orderBy").
		WithDetail("orderBy", orderBy).
		WithDetail("field", field)
}
