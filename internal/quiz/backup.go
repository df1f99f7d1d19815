package quiz

import "sort"

// MergeBackup folds incoming into existing. Tests are de-duplicated by id with the
// incoming copy replacing the stored one; attempts are de-duplicated by id and the
// result is ordered most recent first.
func MergeBackup(existing, incoming Backup) Backup {
	out := Backup{
		Tests:    make([]Test, 0, len(existing.Tests)+len(incoming.Tests)),
		Attempts: make([]Attempt, 0, len(existing.Attempts)+len(incoming.Attempts)),
	}

	pos := map[string]int{}
	for _, t := range existing.Tests {
		if i, ok := pos[t.ID]; ok {
			out.Tests[i] = t
			continue
		}
		pos[t.ID] = len(out.Tests)
		out.Tests = append(out.Tests, t)
	}
	for _, t := range incoming.Tests {
		if i, ok := pos[t.ID]; ok {
			out.Tests[i] = t
			continue
		}
		pos[t.ID] = len(out.Tests)
		out.Tests = append(out.Tests, t)
	}

	seen := map[string]bool{}
	for _, a := range existing.Attempts {
		if !seen[a.ID] {
			seen[a.ID] = true
			out.Attempts = append(out.Attempts, a)
		}
	}
	for _, a := range incoming.Attempts {
		if !seen[a.ID] {
			seen[a.ID] = true
			out.Attempts = append(out.Attempts, a)
		}
	}
	SortAttempts(out.Attempts)
	return out
}

// SortAttempts orders attempts most recent first.
func SortAttempts(as []Attempt) {
	sort.SliceStable(as, func(i, j int) bool {
		return as[i].CompletedAt.After(as[j].CompletedAt)
	})
}
