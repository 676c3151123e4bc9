package domain

// OrderKind tags the three independent order state machines.
type OrderKind string

const (
	KindVideo   OrderKind = "video"
	KindMerch   OrderKind = "merch"
	KindDigital OrderKind = "digital"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions holds the per-kind tables as data. A status absent from a
// kind's map is terminal for that kind.
var transitions = map[OrderKind]map[Status][]Status{
	KindVideo: {
		StatusPending:  {StatusApproved, StatusRejected},
		StatusApproved: {StatusCompleted},
	},
	KindMerch: {
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusShipped, StatusCancelled},
		StatusShipped:   {StatusDelivered},
	},
	KindDigital: {
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusCancelled},
	},
}

// CanTransition reports whether an order of the given kind may move from
// one status to another in a single step.
func CanTransition(kind OrderKind, from, to Status) bool {
	for _, next := range transitions[kind][from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from the given one. The
// returned slice is a copy; callers may not mutate the table through it.
func NextStatuses(kind OrderKind, from Status) []Status {
	next := transitions[kind][from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// KnownStatus reports whether s belongs to the kind's state set, either as
// a source or a target of some transition.
func KnownStatus(kind OrderKind, s Status) bool {
	for from, targets := range transitions[kind] {
		if from == s {
			return true
		}
		for _, to := range targets {
			if to == s {
				return true
			}
		}
	}
	return false
}
