package attempt

import "fmt"

// Status is the palette state of one question during an active attempt.
type Status string

const (
	NotVisited     Status = "not_visited"
	NotAnswered    Status = "not_answered"
	Answered       Status = "answered"
	Marked         Status = "marked"
	MarkedAnswered Status = "marked_answered"
)

// ClearPolicy decides what a committed clear does to a question that was marked for
// review with an answer.
type ClearPolicy int

const (
	// ClearRevertsToMarked drops the question back to marked-for-review.
	ClearRevertsToMarked ClearPolicy = iota
	// ClearKeepsMarkedAnswered leaves it marked-and-answered with no answer.
	ClearKeepsMarkedAnswered
)

// ParseClearPolicy accepts "revert" (default) or "keep".
func ParseClearPolicy(s string) (ClearPolicy, error) {
	switch s {
	case "", "revert":
		return ClearRevertsToMarked, nil
	case "keep":
		return ClearKeepsMarkedAnswered, nil
	default:
		return 0, fmt.Errorf("unknown clear policy %q (want revert|keep)", s)
	}
}

func (p ClearPolicy) String() string {
	if p == ClearKeepsMarkedAnswered {
		return "keep"
	}
	return "revert"
}

// settle recomputes a question's status when its selection is committed.
func settle(st Status, answered bool, p ClearPolicy) Status {
	switch st {
	case Marked, MarkedAnswered:
		if answered {
			return MarkedAnswered
		}
		if st == MarkedAnswered && p == ClearKeepsMarkedAnswered {
			return MarkedAnswered
		}
		return Marked
	default:
		if answered {
			return Answered
		}
		return NotAnswered
	}
}
