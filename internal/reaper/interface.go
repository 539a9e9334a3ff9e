package reaper

import "time"

// DuelLifecycle is the slice of the duel manager the reaper drives.
type DuelLifecycle interface {
	ResolveTimedOut(now time.Time, dryRun bool) (int, error)
	CancelUnmatched(now time.Time) (int, error)
}
