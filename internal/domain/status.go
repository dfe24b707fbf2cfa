package domain

// Status is the pipeline position of a line item.
// It is a string type so stored rows and log lines stay readable while the
// transition table keeps the value set closed.
type Status string

const (
	// StatusNew is the initial state of every line item.
	StatusNew Status = "NEW"
	// StatusValidationRejected is terminal: content validation refused the item.
	StatusValidationRejected Status = "VALIDATION_REJECTED"
	// StatusAwaitingMatch means the item is eligible for catalog matching.
	StatusAwaitingMatch Status = "AWAITING_MATCH"
	// StatusAwaitingIngest means matching missed and web ingestion is pending.
	StatusAwaitingIngest Status = "AWAITING_INGEST"
	// StatusMatched means a canonical item was confirmed.
	StatusMatched Status = "MATCHED"
	// StatusPriceValidated means the price stage has run for the matched item.
	StatusPriceValidated Status = "PRICE_VALIDATED"
	// StatusNeedsExplanation means rule evaluation requires human context.
	StatusNeedsExplanation Status = "NEEDS_EXPLANATION"
	// StatusReadyForSubmission is terminal: the item passed the full pipeline.
	StatusReadyForSubmission Status = "READY_FOR_SUBMISSION"
	// StatusDenied is terminal: a pipeline stage rejected the item.
	StatusDenied Status = "DENIED"
)

// transitionTable enumerates every allowed status edge. Terminal states have
// no entry. Any edge not listed is invalid and must be rejected as a no-op.
var transitionTable = map[Status][]Status{
	StatusNew:              {StatusValidationRejected, StatusAwaitingMatch},
	StatusAwaitingMatch:    {StatusAwaitingIngest, StatusMatched, StatusDenied},
	StatusAwaitingIngest:   {StatusAwaitingMatch, StatusDenied},
	StatusMatched:          {StatusPriceValidated, StatusDenied},
	StatusPriceValidated:   {StatusNeedsExplanation, StatusReadyForSubmission, StatusDenied},
	StatusNeedsExplanation: {StatusReadyForSubmission, StatusDenied},
}

// AllStatuses lists the full status set in pipeline order.
func AllStatuses() []Status {
	return []Status{
		StatusNew,
		StatusValidationRejected,
		StatusAwaitingMatch,
		StatusAwaitingIngest,
		StatusMatched,
		StatusPriceValidated,
		StatusNeedsExplanation,
		StatusReadyForSubmission,
		StatusDenied,
	}
}

// IsValidStatus reports whether s belongs to the status set.
func IsValidStatus(s Status) bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing edges.
func (s Status) IsTerminal() bool {
	_, ok := transitionTable[s]
	return !ok && IsValidStatus(s)
}

// CanTransition reports whether the edge from -> to is listed in the table.
func CanTransition(from, to Status) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the allowed targets from a given status.
// The result is a copy; callers may not mutate the table.
func NextStatuses(from Status) []Status {
	targets := transitionTable[from]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}
