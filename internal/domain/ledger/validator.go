package ledger

import (
	"context"
	"fmt"

	"gledger/internal/core/apperror"
	"gledger/internal/core/types"
	"gledger/internal/domain/accounts"
)

// ViolationCode identifies a validation rule a journal breaks.
type ViolationCode string

const (
	ViolationNoEntries       ViolationCode = "no_entries"
	ViolationAccountMissing  ViolationCode = "account_missing"
	ViolationAccountInactive ViolationCode = "account_inactive"
	ViolationNegativeAmount  ViolationCode = "negative_amount"
	ViolationBothSides       ViolationCode = "both_sides"
	ViolationZeroEntry       ViolationCode = "zero_entry"
	ViolationDuplicateLine   ViolationCode = "duplicate_line"
	ViolationUnbalanced      ViolationCode = "unbalanced"
)

// Violation describes one broken rule with enough context for the user
// to correct the entry without guessing.
type Violation struct {
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`

	// LineNo identifies the offending entry where applicable
	LineNo int `json:"lineNo,omitempty"`

	// Amount carries the imbalance (debits minus credits) for unbalanced
	Amount types.MinorUnits `json:"amount,omitempty"`
}

// Validator enforces the per-entry structural rules and the fundamental
// balance invariant. It is pure over the journal's current entry set;
// posting paths re-run it inside the posting transaction because entries
// may have changed since any earlier check.
type Validator struct {
	directory accounts.Directory
}

// NewValidator creates a Validator backed by the Chart of Accounts.
func NewValidator(directory accounts.Directory) *Validator {
	return &Validator{directory: directory}
}

// Validate checks the journal and returns all violations found.
// Structural rules (accounts, sidedness, line numbering) are reported
// first; the balance rule is evaluated only when the structure is sound,
// so a malformed journal is never additionally reported as unbalanced.
// The error return is for infrastructure failures (directory unreachable)
// only.
func (v *Validator) Validate(ctx context.Context, j *Journal) ([]Violation, error) {
	if len(j.Entries) == 0 {
		return []Violation{{
			Code:    ViolationNoEntries,
			Message: "journal has no entries",
		}}, nil
	}

	var violations []Violation

	for _, e := range j.Entries {
		info, err := v.directory.Lookup(ctx, j.TenantID, e.AccountID)
		if err != nil {
			return nil, fmt.Errorf("account lookup %s: %w", e.AccountID, err)
		}
		switch {
		case !info.Exists:
			violations = append(violations, Violation{
				Code:    ViolationAccountMissing,
				Message: fmt.Sprintf("account %s does not exist", e.AccountID),
				LineNo:  e.LineNo,
			})
		case !info.IsActive:
			violations = append(violations, Violation{
				Code:    ViolationAccountInactive,
				Message: fmt.Sprintf("account %s is closed", e.AccountID),
				LineNo:  e.LineNo,
			})
		}
	}

	for _, e := range j.Entries {
		switch {
		case e.Debit.IsNegative() || e.Credit.IsNegative():
			violations = append(violations, Violation{
				Code:    ViolationNegativeAmount,
				Message: "entry amounts must be non-negative",
				LineNo:  e.LineNo,
			})
		case !e.Debit.IsZero() && !e.Credit.IsZero():
			violations = append(violations, Violation{
				Code:    ViolationBothSides,
				Message: "entry carries both a debit and a credit",
				LineNo:  e.LineNo,
			})
		case e.Debit.IsZero() && e.Credit.IsZero():
			violations = append(violations, Violation{
				Code:    ViolationZeroEntry,
				Message: "entry carries neither a debit nor a credit",
				LineNo:  e.LineNo,
			})
		}
	}

	seen := make(map[int]bool, len(j.Entries))
	for _, e := range j.Entries {
		if seen[e.LineNo] {
			violations = append(violations, Violation{
				Code:    ViolationDuplicateLine,
				Message: fmt.Sprintf("line number %d is duplicated", e.LineNo),
				LineNo:  e.LineNo,
			})
		}
		seen[e.LineNo] = true
	}

	// Balance is checked on integers (minor units), never floats.
	// Skipped while structural violations exist.
	if len(violations) == 0 {
		var debit, credit types.MinorUnits
		for _, e := range j.Entries {
			debit += e.Debit
			credit += e.Credit
		}
		if debit != credit {
			violations = append(violations, Violation{
				Code:    ViolationUnbalanced,
				Message: fmt.Sprintf("debits %s do not equal credits %s", debit, credit),
				Amount:  debit - credit,
			})
		}
	}

	return violations, nil
}

// ViolationsError converts a non-empty violation list into the AppError
// surfaced to callers. A lone unbalanced violation keeps its dedicated
// code so callers can distinguish it.
func ViolationsError(j *Journal, violations []Violation) *apperror.AppError {
	if len(violations) == 1 && violations[0].Code == ViolationUnbalanced {
		return apperror.NewUnbalanced(j.Number, int64(violations[0].Amount))
	}
	if len(violations) == 1 && violations[0].Code == ViolationNoEntries {
		return apperror.NewBusinessRule(apperror.CodeEmptyJournal,
			"journal with no entries cannot be posted").
			WithDetail("journal_number", j.Number)
	}
	return apperror.NewValidation("journal failed validation").
		WithDetail("journal_number", j.Number).
		WithDetail("violations", violations)
}
