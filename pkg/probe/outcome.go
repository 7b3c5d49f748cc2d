package probe

import (
	"fmt"
	"sync/atomic"

	"apiprobe/pkg/apperr"
)

// OutcomeLog holds exactly one outcome per scheduled index. Each dispatch
// claims its pre-assigned slot with a compare-and-swap, so concurrent writers
// never contend and the log reads back in sequence order.
type OutcomeLog struct {
	slots   []RequestOutcome
	written []atomic.Bool
}

// NewOutcomeLog creates an empty log with n slots
func NewOutcomeLog(n int) *OutcomeLog {
	return &OutcomeLog{
		slots:   make([]RequestOutcome, n),
		written: make([]atomic.Bool, n),
	}
}

// Record stores o in its slot. Writing an index twice or out of range is a
// programming defect and reported as an internal error.
func (l *OutcomeLog) Record(o RequestOutcome) error {
	i := o.SequenceIndex
	if i < 0 || i >= len(l.slots) {
		return apperr.New(apperr.CodeInternal, fmt.Sprintf("outcome index %d out of range [0,%d)", i, len(l.slots)))
	}
	if !l.written[i].CompareAndSwap(false, true) {
		return apperr.New(apperr.CodeInternal, fmt.Sprintf("duplicate outcome for index %d", i))
	}
	l.slots[i] = o
	return nil
}

// Outcomes returns the log in sequence order. It must only be called once all
// writers have finished; a missing slot is an internal error.
func (l *OutcomeLog) Outcomes() ([]RequestOutcome, error) {
	for i := range l.written {
		if !l.written[i].Load() {
			return nil, apperr.New(apperr.CodeInternal, fmt.Sprintf("no outcome recorded for index %d", i))
		}
	}
	return l.slots, nil
}

// Len returns the number of slots
func (l *OutcomeLog) Len() int {
	return len(l.slots)
}
