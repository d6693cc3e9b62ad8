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
	"gledger/pkg/logger"
)

// JournalService owns the Draft -> Posted state machine for single
// journals and their entries.
type JournalService struct {
	journals  JournalRepository
	settings  SettingsRepository
	validator *Validator
	sequencer sequence.Sequencer
	guard     PeriodGuard
	txManager tx.Manager
	notifier  Notifier
	hooks     *HookRegistry[*Journal]
}

// NewJournalService creates a new journal service.
func NewJournalService(
	journals JournalRepository,
	settings SettingsRepository,
	validator *Validator,
	sequencer sequence.Sequencer,
	txManager tx.Manager,
	notifier Notifier,
) *JournalService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &JournalService{
		journals:  journals,
		settings:  settings,
		validator: validator,
		sequencer: sequencer,
		txManager: txManager,
		notifier:  notifier,
		hooks:     NewHookRegistry[*Journal](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *JournalService) Hooks() *HookRegistry[*Journal] {
	return s.hooks
}

// requireTenant hides rows belonging to other tenants. Cross-tenant
// reads answer "not found" rather than "forbidden" so resource IDs do
// not leak.
func requireTenant(ctx context.Context, resource, ownerTenant, resourceID string) error {
	if tid := appctx.GetTenantID(ctx); tid != "" && tid != ownerTenant {
		return apperror.NewNotFound(resource, resourceID)
	}
	return nil
}

// Create persists a new Draft journal, allocating its number from the
// tenant's sequence. Entries are optional at creation. If numbering
// fails, nothing is created.
func (s *JournalService) Create(ctx context.Context, j *Journal) error {
	if err := s.hooks.Run(ctx, BeforeCreate, j); err != nil {
		return err
	}

	if actor := appctx.GetActor(ctx); actor != nil {
		j.CreatedBy = actor.UserID
		j.UpdatedBy = actor.UserID
	}

	if err := j.Validate(ctx); err != nil {
		return err
	}
	for _, e := range j.Entries {
		if err := checkEntryAmounts(e); err != nil {
			return err
		}
	}

	cfg, err := s.settings.Get(ctx, j.TenantID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if j.Number == "" {
		number, err := s.sequencer.Next(ctx, j.TenantID, sequence.KindJournal, cfg.JournalFormat())
		if err != nil {
			return fmt.Errorf("allocate journal number: %w", err)
		}
		j.Number = number
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.journals.Create(ctx, j); err != nil {
			return fmt.Errorf("create journal: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterCreate, j); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "journal created",
		"id", j.ID,
		"number", j.Number,
		"source", j.Source)

	return nil
}

// Get retrieves a journal with its entries.
func (s *JournalService) Get(ctx context.Context, journalID id.ID) (*Journal, error) {
	j, err := s.journals.Get(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if err := requireTenant(ctx, "journal", j.TenantID, journalID.String()); err != nil {
		return nil, err
	}
	return j, nil
}

// List retrieves journal headers with filtering.
func (s *JournalService) List(ctx context.Context, filter JournalFilter) (ListResult[*Journal], error) {
	return s.journals.List(ctx, filter)
}

// AddEntry appends a line to a Draft journal.
// expectedVersion, when nonzero, is checked against the stored version so
// two concurrent editors cannot silently overwrite each other.
func (s *JournalService) AddEntry(ctx context.Context, journalID id.ID, expectedVersion int, e Entry) (*Journal, error) {
	return s.mutate(ctx, journalID, expectedVersion, func(j *Journal) error {
		return j.AddEntry(e)
	})
}

// UpdateEntry replaces a line of a Draft journal.
func (s *JournalService) UpdateEntry(ctx context.Context, journalID id.ID, expectedVersion, lineNo int, e Entry) (*Journal, error) {
	return s.mutate(ctx, journalID, expectedVersion, func(j *Journal) error {
		return j.UpdateEntry(lineNo, e)
	})
}

// RemoveEntry deletes a line of a Draft journal.
func (s *JournalService) RemoveEntry(ctx context.Context, journalID id.ID, expectedVersion, lineNo int) (*Journal, error) {
	return s.mutate(ctx, journalID, expectedVersion, func(j *Journal) error {
		return j.RemoveEntry(lineNo)
	})
}

// mutate applies fn to a row-locked journal and persists the result with
// an optimistic version check.
func (s *JournalService) mutate(ctx context.Context, journalID id.ID, expectedVersion int, fn func(*Journal) error) (*Journal, error) {
	var result *Journal
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		j, err := s.journals.GetForUpdate(ctx, journalID)
		if err != nil {
			return err
		}
		if err := requireTenant(ctx, "journal", j.TenantID, journalID.String()); err != nil {
			return err
		}
		if expectedVersion > 0 && j.Version != expectedVersion {
			return apperror.NewConcurrentModification("journal", journalID.String())
		}
		if err := fn(j); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, j); err != nil {
			return err
		}
		if err := s.journals.Update(ctx, j); err != nil {
			return fmt.Errorf("update journal: %w", err)
		}
		result = j
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, AfterUpdate, result); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return result, nil
}

// Post transitions a journal to Posted.
//
// All gates run inside one transaction on the row-locked journal:
// re-validation (entries may have changed since any earlier check),
// the period guard on the settings read within the same transaction,
// and the batch-membership check. On any failure the journal is left
// unchanged and the specific violation is returned. Posting an already
// posted journal is a reported conflict, never a silent success.
func (s *JournalService) Post(ctx context.Context, journalID id.ID) (*Journal, error) {
	actorID := appctx.GetUserID(ctx)

	var posted *Journal
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		j, err := s.journals.GetForUpdate(ctx, journalID)
		if err != nil {
			return err
		}
		if err := requireTenant(ctx, "journal", j.TenantID, journalID.String()); err != nil {
			return err
		}

		if j.Status == JournalStatusPosted {
			return apperror.NewJournalPosted(j.ID.String())
		}
		if j.BatchID != nil {
			return apperror.NewConflict("journal belongs to a batch; post the batch instead").
				WithDetail("journal_id", j.ID.String()).
				WithDetail("batch_id", j.BatchID.String())
		}

		violations, err := s.validator.Validate(ctx, j)
		if err != nil {
			return apperror.NewInternal(err)
		}
		if len(violations) > 0 {
			return ViolationsError(j, violations)
		}

		cfg, err := s.settings.Get(ctx, j.TenantID)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		if err := s.guard.Check(cfg, j.Date); err != nil {
			return err
		}

		j.MarkPosted(actorID, time.Now().UTC())
		if err := s.journals.Update(ctx, j); err != nil {
			return fmt.Errorf("post journal: %w", err)
		}
		posted = j
		return nil
	})

	if err != nil {
		s.notifier.Notify(ctx, Event{
			Type:     EventPostingFailed,
			TenantID: appctx.GetTenantID(ctx),
			ID:       journalID,
			Summary:  err.Error(),
		})
		return nil, err
	}

	s.notifier.Notify(ctx, Event{
		Type:     EventJournalPosted,
		TenantID: posted.TenantID,
		ID:       posted.ID,
		Summary:  posted.Summary(),
	})

	logger.Info(ctx, "journal posted",
		"id", posted.ID,
		"number", posted.Number,
		"posted_by", actorID)

	return posted, nil
}

// Delete removes a Draft journal and its entries. Posted journals and
// batch members are rejected.
func (s *JournalService) Delete(ctx context.Context, journalID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		j, err := s.journals.GetForUpdate(ctx, journalID)
		if err != nil {
			return err
		}
		if err := requireTenant(ctx, "journal", j.TenantID, journalID.String()); err != nil {
			return err
		}
		if err := j.CanModify(); err != nil {
			return err
		}
		if j.BatchID != nil {
			return apperror.NewConflict("journal belongs to a batch; remove it from the batch first").
				WithDetail("journal_id", j.ID.String()).
				WithDetail("batch_id", j.BatchID.String())
		}
		return s.journals.Delete(ctx, journalID)
	})
}

// Reverse creates the Draft counter-journal for a posted journal, dated
// as requested, and numbers it through the normal sequence. The source
// journal is never mutated.
func (s *JournalService) Reverse(ctx context.Context, journalID id.ID, date time.Time) (*Journal, error) {
	src, err := s.Get(ctx, journalID)
	if err != nil {
		return nil, err
	}

	if src.Status != JournalStatusPosted {
		return nil, apperror.NewBusinessRule(apperror.CodeJournalNotPosted,
			"only posted journals can be reversed").
			WithDetail("journal_id", src.ID.String()).
			WithDetail("status", string(src.Status))
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}
	rev := BuildReversal(src, date)

	if err := s.Create(ctx, rev); err != nil {
		return nil, err
	}

	logger.Info(ctx, "reversal created",
		"id", rev.ID,
		"number", rev.Number,
		"reversal_of", src.Number)

	return rev, nil
}
