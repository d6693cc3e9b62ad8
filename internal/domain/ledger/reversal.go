package ledger

import (
	"fmt"
	"time"

	"gledger/internal/core/id"
)

// BuildReversal produces the balancing counter-journal for a posted
// journal: every debit becomes a credit of the same amount and vice
// versa, on the same accounts with the same line structure.
//
// The result is a Draft so the caller can review before posting through
// the normal pipeline; reversal never auto-posts. The engine does not
// prevent reversing the same journal more than once - partial and
// repeated reversals are a policy decision left to callers.
func BuildReversal(src *Journal, date time.Time) *Journal {
	rev := NewJournal(src.TenantID, date,
		fmt.Sprintf("Reversal of %s", src.Number), SourceReversal)

	srcID := src.ID
	rev.ReversalOf = &srcID

	rev.Entries = make([]Entry, len(src.Entries))
	for i, e := range src.Entries {
		rev.Entries[i] = Entry{
			LineID:      id.New(),
			LineNo:      e.LineNo,
			AccountID:   e.AccountID,
			Debit:       e.Credit,
			Credit:      e.Debit,
			Description: e.Description,
			EntityType:  e.EntityType,
			EntityID:    e.EntityID,
		}
	}
	rev.recalculateTotals()

	return rev
}
