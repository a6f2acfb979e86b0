package seeding

import (
	"errors"
	"fmt"
)

// ErrMismatch is returned when a report disagrees with what was written.
var ErrMismatch = errors.New("report mismatch")

// verifyLapsed checks that the lapsed report holds exactly the members that
// were not marked at the second event, each once.
func verifyLapsed(res *Result) error {
	want := make(map[string]bool, len(res.Members))
	for _, m := range res.Members {
		if !res.Returned[m.ID] {
			want[m.ID] = true
		}
	}

	seen := make(map[string]bool, len(res.Lapsed))
	for _, m := range res.Lapsed {
		switch {
		case seen[m.ID]:
			return fmt.Errorf("%w: member %s reported twice", ErrMismatch, m.ID)
		case res.Returned[m.ID]:
			return fmt.Errorf("%w: member %s returned but was reported lapsed", ErrMismatch, m.ID)
		case !want[m.ID]:
			return fmt.Errorf("%w: unknown member %s in report", ErrMismatch, m.ID)
		}
		seen[m.ID] = true
	}
	if len(seen) != len(want) {
		return fmt.Errorf("%w: expected %d lapsed members, got %d", ErrMismatch, len(want), len(seen))
	}
	return nil
}
