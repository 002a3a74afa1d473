package ruleparser

import "errors"

// Sentinel errors a Setup callback can wrap to signal the -2/-3/-4 return
// codes from spec.md §4.4 step 10 / §7. A plain error (or one that wraps
// neither sentinel) is treated as the hard-error (-1) case.
var (
	// ErrSilentOnce is reported once per keyword per process, then
	// swallowed on subsequent occurrences (spec.md §4.2's silent-error
	// registry, §7's "Silent-once").
	ErrSilentOnce = errors.New("silent error")

	// ErrSilentOK discards the current rule without a user-visible
	// error (spec.md §7's "Quiet-skip (ok)").
	ErrSilentOK = errors.New("silent ok")

	// ErrRequiresNotMet marks a rule skipped because its `requires`
	// predicate was not satisfied.
	ErrRequiresNotMet = errors.New("requires not met")
)

func isSilentOnce(err error) bool     { return errors.Is(err, ErrSilentOnce) }
func isSilentOK(err error) bool       { return errors.Is(err, ErrSilentOK) }
func isRequiresNotMet(err error) bool { return errors.Is(err, ErrRequiresNotMet) }
