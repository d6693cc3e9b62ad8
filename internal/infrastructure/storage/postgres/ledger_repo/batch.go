package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gledger/internal/core/apperror"
	"gledger/internal/core/id"
	"gledger/internal/domain/ledger"
	"gledger/internal/infrastructure/storage/postgres"
)

const batchesTable = "batches"

var batchColumns = postgres.ExtractDBColumns[ledger.Batch]()

// Compile-time check that BatchRepo implements ledger.BatchRepository.
var _ ledger.BatchRepository = (*BatchRepo)(nil)

// BatchRepo persists batch headers. Membership lives on the journal
// rows (batch_id), not here.
type BatchRepo struct {
	txManager *postgres.TxManager
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{txManager: txManager}
}

func (r *BatchRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BatchRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(batchColumns...).
		From(batchesTable)
}

// Create inserts a new batch.
func (r *BatchRepo) Create(ctx context.Context, b *ledger.Batch) error {
	data := postgres.StructToMap(b)
	filtered := make(map[string]any, len(batchColumns))
	for _, col := range batchColumns {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Insert(batchesTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// Get retrieves a batch by ID.
func (r *BatchRepo) Get(ctx context.Context, batchID id.ID) (*ledger.Batch, error) {
	return r.get(ctx, batchID, false)
}

// GetForUpdate retrieves a batch with a row lock.
func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*ledger.Batch, error) {
	return r.get(ctx, batchID, true)
}

func (r *BatchRepo) get(ctx context.Context, batchID id.ID, forUpdate bool) (*ledger.Batch, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": batchID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	b := &ledger.Batch{}
	if err := pgxscan.Get(ctx, querier, b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID.String())
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// Update writes the batch with an optimistic version check.
func (r *BatchRepo) Update(ctx context.Context, b *ledger.Batch) error {
	data := postgres.StructToMap(b)

	filtered := make(map[string]any, len(batchColumns))
	for _, col := range batchColumns {
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
		Update(batchesTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": b.ID}).
		Where(squirrel.Eq{"version": b.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("batch", b.ID.String())
	}

	b.Touch()
	return nil
}

// List retrieves batches matching the filter.
func (r *BatchRepo) List(ctx context.Context, filter ledger.BatchFilter) (ledger.ListResult[*ledger.Batch], error) {
	result := ledger.ListResult[*ledger.Batch]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().Where(squirrel.Eq{"tenant_id": filter.TenantID})

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"name": pattern},
		})
	}

	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count batches: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy, batchColumns, "created_at DESC")
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
		return result, fmt.Errorf("list batches: %w", err)
	}

	return result, nil
}
