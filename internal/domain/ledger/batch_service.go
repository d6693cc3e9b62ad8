package ledger

import (
	"context"
	"fmt"
	"time"

	"gledger/internal/core/apperror"
	appctx "gledger/internal/core/context"
	"gledger/internal/core/id"
	"gledger/internal/core/sequence"
	"gledger/internal/core/tx"
	"gledger/internal/core/types"
	"gledger/pkg/logger"
)

// MemberFailure describes why one journal blocked its batch from posting.
type MemberFailure struct {
	JournalID  id.ID       `json:"journal_id"`
	Number     string      `json:"number"`
	Violations []Violation `json:"violations,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// BatchService groups Draft journals and posts them atomically.
type BatchService struct {
	batches   BatchRepository
	journals  JournalRepository
	settings  SettingsRepository
	validator *Validator
	sequencer sequence.Sequencer
	guard     PeriodGuard
	txManager tx.Manager
	notifier  Notifier
	hooks     *HookRegistry[*Batch]
}

// NewBatchService creates a new batch service.
func NewBatchService(
	batches BatchRepository,
	journals JournalRepository,
	settings SettingsRepository,
	validator *Validator,
	sequencer sequence.Sequencer,
	txManager tx.Manager,
	notifier Notifier,
) *BatchService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BatchService{
		batches:   batches,
		journals:  journals,
		settings:  settings,
		validator: validator,
		sequencer: sequencer,
		txManager: txManager,
		notifier:  notifier,
		hooks:     NewHookRegistry[*Batch](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *BatchService) Hooks() *HookRegistry[*Batch] {
	return s.hooks
}

// Create persists a new Draft batch with a number from the tenant's
// batch sequence.
func (s *BatchService) Create(ctx context.Context, b *Batch) error {
	if err := s.hooks.Run(ctx, BeforeCreate, b); err != nil {
		return err
	}

	if actor := appctx.GetActor(ctx); actor != nil {
		b.CreatedBy = actor.UserID
		b.UpdatedBy = actor.UserID
	}

	if err := b.Validate(ctx); err != nil {
		return err
	}

	cfg, err := s.settings.Get(ctx, b.TenantID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if b.Number == "" {
		number, err := s.sequencer.Next(ctx, b.TenantID, sequence.KindBatch, cfg.BatchFormat())
		if err != nil {
			return fmt.Errorf("allocate batch number: %w", err)
		}
		b.Number = number
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.batches.Create(ctx, b); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterCreate, b); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "batch created", "id", b.ID, "number", b.Number)
	return nil
}

// Get retrieves a batch header.
func (s *BatchService) Get(ctx context.Context, batchID id.ID) (*Batch, error) {
	b, err := s.batches.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := requireTenant(ctx, "batch", b.TenantID, batchID.String()); err != nil {
		return nil, err
	}
	return b, nil
}

// List retrieves batch headers with filtering.
func (s *BatchService) List(ctx context.Context, filter BatchFilter) (ListResult[*Batch], error) {
	return s.batches.List(ctx, filter)
}

// Journals returns the batch members with entries, ordered by number.
func (s *BatchService) Journals(ctx context.Context, batchID id.ID) ([]*Journal, error) {
	if _, err := s.Get(ctx, batchID); err != nil {
		return nil, err
	}
	return s.journals.ListByBatch(ctx, batchID)
}

// lock row-locks the batch and hides it from foreign tenants.
func (s *BatchService) lock(ctx context.Context, batchID id.ID) (*Batch, error) {
	b, err := s.batches.GetForUpdate(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := requireTenant(ctx, "batch", b.TenantID, batchID.String()); err != nil {
		return nil, err
	}
	return b, nil
}

// AddJournal attaches a Draft journal to a Draft batch. A journal
// already claimed by any batch is rejected so membership stays exclusive.
func (s *BatchService) AddJournal(ctx context.Context, batchID, journalID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lock(ctx, batchID)
		if err != nil {
			return err
		}
		if err := b.CanModify(); err != nil {
			return err
		}

		j, err := s.journals.GetForUpdate(ctx, journalID)
		if err != nil {
			return err
		}
		if j.TenantID != b.TenantID {
			return apperror.NewNotFound("journal", journalID.String())
		}
		if j.Status != JournalStatusDraft {
			return apperror.NewBusinessRule(apperror.CodeBatchMember,
				"only draft journals can join a batch").
				WithDetail("journal_id", j.ID.String()).
				WithDetail("status", string(j.Status))
		}
		if j.BatchID != nil {
			if *j.BatchID == batchID {
				return nil
			}
			return apperror.NewConflict("journal already belongs to another batch").
				WithDetail("journal_id", j.ID.String()).
				WithDetail("batch_id", j.BatchID.String())
		}

		j.BatchID = &batchID
		if err := s.journals.Update(ctx, j); err != nil {
			return fmt.Errorf("attach journal: %w", err)
		}

		b.JournalCount++
		b.TotalDebit += j.TotalDebit
		b.TotalCredit += j.TotalCredit
		if err := s.batches.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}
		return nil
	})
}

// RemoveJournal detaches a journal from a Draft batch.
func (s *BatchService) RemoveJournal(ctx context.Context, batchID, journalID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lock(ctx, batchID)
		if err != nil {
			return err
		}
		if err := b.CanModify(); err != nil {
			return err
		}

		j, err := s.journals.GetForUpdate(ctx, journalID)
		if err != nil {
			return err
		}
		if j.BatchID == nil || *j.BatchID != batchID {
			return apperror.NewNotFound("batch member", journalID.String())
		}

		j.BatchID = nil
		if err := s.journals.Update(ctx, j); err != nil {
			return fmt.Errorf("detach journal: %w", err)
		}

		b.JournalCount--
		b.TotalDebit -= j.TotalDebit
		b.TotalCredit -= j.TotalCredit
		if err := s.batches.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}
		return nil
	})
}

// MarkReady records the reviewing actor and moves the batch Draft -> Ready.
func (s *BatchService) MarkReady(ctx context.Context, batchID id.ID) (*Batch, error) {
	reviewerID := appctx.GetUserID(ctx)

	var result *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lock(ctx, batchID)
		if err != nil {
			return err
		}
		if err := b.MarkReady(reviewerID); err != nil {
			return err
		}
		if err := s.batches.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}
		result = b
		return nil
	})
	return result, err
}

// Post posts every journal in the batch within a single transaction.
//
// Each member is re-validated and checked against the posting period
// while row-locked. If any member fails, the error carries the full
// per-journal violation list and no journal in the batch is posted.
func (s *BatchService) Post(ctx context.Context, batchID id.ID) (*Batch, error) {
	actorID := appctx.GetUserID(ctx)

	var posted *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lock(ctx, batchID)
		if err != nil {
			return err
		}

		cfg, err := s.settings.Get(ctx, b.TenantID)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		if err := b.CanPost(cfg.RequireBatchApproval); err != nil {
			return err
		}

		members, err := s.journals.ListByBatch(ctx, batchID)
		if err != nil {
			return fmt.Errorf("load batch journals: %w", err)
		}
		if len(members) == 0 {
			return apperror.NewBusinessRule(apperror.CodeBatchState,
				"batch has no journals to post").
				WithDetail("batch_id", b.ID.String())
		}

		var failures []MemberFailure
		for _, j := range members {
			if j.Status == JournalStatusPosted {
				failures = append(failures, MemberFailure{
					JournalID: j.ID, Number: j.Number,
					Reason: "journal is already posted",
				})
				continue
			}
			violations, err := s.validator.Validate(ctx, j)
			if err != nil {
				return apperror.NewInternal(err)
			}
			if len(violations) > 0 {
				failures = append(failures, MemberFailure{
					JournalID: j.ID, Number: j.Number, Violations: violations,
				})
				continue
			}
			if err := s.guard.Check(cfg, j.Date); err != nil {
				reason := err.Error()
				if appErr, ok := apperror.AsAppError(err); ok {
					reason = appErr.Message
				}
				failures = append(failures, MemberFailure{
					JournalID: j.ID, Number: j.Number,
					Reason: reason,
				})
			}
		}
		if len(failures) > 0 {
			return apperror.NewBusinessRule(apperror.CodeBatchMember,
				"one or more journals failed batch posting checks").
				WithDetail("batch_id", b.ID.String()).
				WithDetail("journals", failures)
		}

		now := time.Now().UTC()
		var totalDebit, totalCredit types.MinorUnits
		for _, j := range members {
			j.MarkPosted(actorID, now)
			if err := s.journals.Update(ctx, j); err != nil {
				return fmt.Errorf("post journal %s: %w", j.Number, err)
			}
			totalDebit += j.TotalDebit
			totalCredit += j.TotalCredit
		}

		b.MarkPosted(actorID, now, len(members), totalDebit, totalCredit)
		if err := s.batches.Update(ctx, b); err != nil {
			return fmt.Errorf("post batch: %w", err)
		}
		posted = b
		return nil
	})

	if err != nil {
		s.notifier.Notify(ctx, Event{
			Type:     EventPostingFailed,
			TenantID: appctx.GetTenantID(ctx),
			ID:       batchID,
			Summary:  err.Error(),
		})
		return nil, err
	}

	s.notifier.Notify(ctx, Event{
		Type:     EventBatchPosted,
		TenantID: posted.TenantID,
		ID:       posted.ID,
		Summary:  posted.Summary(),
	})

	logger.Info(ctx, "batch posted",
		"id", posted.ID,
		"number", posted.Number,
		"journals", posted.JournalCount,
		"posted_by", actorID)

	return posted, nil
}

// Cancel voids a Draft or Ready batch and releases its members back to
// standalone Draft journals.
func (s *BatchService) Cancel(ctx context.Context, batchID id.ID) (*Batch, error) {
	var result *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lock(ctx, batchID)
		if err != nil {
			return err
		}
		if err := b.MarkCancelled(); err != nil {
			return err
		}
		if err := s.journals.ClearBatch(ctx, batchID); err != nil {
			return fmt.Errorf("release batch journals: %w", err)
		}
		b.JournalCount = 0
		b.TotalDebit = 0
		b.TotalCredit = 0
		if err := s.batches.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch cancelled", "id", result.ID, "number", result.Number)
	return result, nil
}
