package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
)

// CarryKind classifies a rollover audit event.
type CarryKind string

const (
	// CarryKindCarried: unused budget was added to carry-forward.
	CarryKindCarried CarryKind = "carried"
	// CarryKindOverspent: spend exceeded the budget and carry-forward was reset.
	CarryKindOverspent CarryKind = "overspent"
)

// CarryEvent is the audit record emitted by rollover for one category.
type CarryEvent struct {
	Kind         CarryKind
	CategoryID   uuid.UUID
	CategoryName string
	From         Period
	To           Period
	Budget       money.Amount
	Spent        money.Amount
	// Amount is the leftover carried (carried) or the overspend (overspent).
	Amount      money.Amount
	CarryBefore money.Amount
	CarryAfter  money.Amount
	At          time.Time
}

// Rollover computes the carry-forward of c after period from, given the
// income and category spend of that period. It returns the new carry and an
// audit event, or a nil event when nothing changes (spend equals budget).
// Overspending resets carry to zero and never goes negative.
func (e Engine) Rollover(c Category, from, to Period, periodIncome, spent money.Amount) (money.Amount, *CarryEvent, error) {
	budget, err := e.AllocatedAmount(c, periodIncome)
	if err != nil {
		return money.Amount{}, nil, err
	}
	cmp, err := spent.Cmp(budget)
	if err != nil {
		return money.Amount{}, nil, err
	}
	ev := &CarryEvent{
		CategoryID:   c.ID,
		CategoryName: c.Name,
		From:         from,
		To:           to,
		Budget:       budget,
		Spent:        spent,
		CarryBefore:  c.CarryForward,
	}
	switch {
	case cmp < 0:
		leftover, err := budget.Sub(spent)
		if err != nil {
			return money.Amount{}, nil, err
		}
		after, err := c.CarryForward.Add(leftover)
		if err != nil {
			return money.Amount{}, nil, err
		}
		ev.Kind, ev.Amount, ev.CarryAfter = CarryKindCarried, leftover, after
		return after, ev, nil
	case cmp > 0:
		over, err := spent.Sub(budget)
		if err != nil {
			return money.Amount{}, nil, err
		}
		ev.Kind, ev.Amount, ev.CarryAfter = CarryKindOverspent, over, e.Zero()
		return e.Zero(), ev, nil
	default:
		return c.CarryForward, nil, nil
	}
}
