package core

import "manifestcore/pkg/domain"

// AggregateOutcome summarizes the container set for status computation.
type AggregateOutcome string

// Aggregate outcomes of the per-container sub-workflow.
const (
	// AggregatePending means at least one packaging is still waiting for
	// its acceptation signature.
	AggregatePending AggregateOutcome = "pending"
	// AggregateAllRefused means every packaging was refused.
	AggregateAllRefused AggregateOutcome = "all_refused"
	// AggregateAllAccepted means every packaging was accepted outright.
	AggregateAllAccepted AggregateOutcome = "all_accepted"
	// AggregateMixed means at least one refused and at least one not.
	AggregateMixed AggregateOutcome = "mixed"
	// AggregateAllOperated means every non-refused packaging carries a
	// signed operation.
	AggregateAllOperated AggregateOutcome = "all_operated"
)

// PackagingAggregate is the rolled-up view of a manifest's container set.
// A manifest with exactly one packaging flows through the same rules as the
// multi-container case.
type PackagingAggregate struct {
	Total             int
	AcceptationSigned int
	Refused           int
	Operated          int
	// NonFinal counts signed operations whose code defers to grouping
	// without a traceability break.
	NonFinal int
	// NoTraceability counts signed operations flagged as traceability breaks.
	NoTraceability int
}

// AggregatePackagings folds the per-container sub-machines into a single
// aggregate.
func AggregatePackagings(ps []domain.Packaging) PackagingAggregate {
	agg := PackagingAggregate{Total: len(ps)}
	for _, p := range ps {
		if !p.AcceptationSigned() {
			continue
		}
		agg.AcceptationSigned++
		if p.Refused() {
			agg.Refused++
			continue
		}
		if !p.OperationSigned() {
			continue
		}
		agg.Operated++
		if p.Operation.NoTraceability {
			agg.NoTraceability++
		} else if IsGroupingOperationCode(p.Operation.Code) {
			agg.NonFinal++
		}
	}
	return agg
}

// Outcome classifies the aggregate.
func (a PackagingAggregate) Outcome() AggregateOutcome {
	switch {
	case a.Total == 0 || a.AcceptationSigned < a.Total:
		return AggregatePending
	case a.Refused == a.Total:
		return AggregateAllRefused
	case a.Operated == a.Total-a.Refused:
		return AggregateAllOperated
	case a.Refused > 0:
		return AggregateMixed
	default:
		return AggregateAllAccepted
	}
}

// AcceptationStatus maps the aggregate onto the manifest-level acceptation
// outcome: REFUSED only when every packaging is refused, PARTIALLY_REFUSED
// when refusals are mixed with acceptances, ACCEPTED otherwise. While
// signatures are still missing the current status is kept.
func (a PackagingAggregate) AcceptationStatus(current domain.Status) domain.Status {
	if a.Total == 0 || a.AcceptationSigned < a.Total {
		return current
	}
	switch {
	case a.Refused == a.Total:
		return domain.StatusRefused
	case a.Refused > 0:
		return domain.StatusPartiallyRefused
	default:
		return domain.StatusAccepted
	}
}

// OperationStatus maps the aggregate onto the manifest-level treatment
// outcome once every non-refused packaging is operated: NO_TRACEABILITY when
// every operation took the traceability-break exit, AWAITING_GROUP when any
// operation defers to grouping, PROCESSED otherwise. Until then the current
// status is kept.
func (a PackagingAggregate) OperationStatus(current domain.Status) domain.Status {
	nonRefused := a.Total - a.Refused
	if nonRefused <= 0 || a.Operated < nonRefused {
		return current
	}
	switch {
	case a.NoTraceability == nonRefused:
		return domain.StatusNoTraceability
	case a.NonFinal > 0:
		return domain.StatusAwaitingGroup
	default:
		return domain.StatusProcessed
	}
}
