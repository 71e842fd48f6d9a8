// Package either provides a minimal two-armed result container.
//
// An Either holds exactly one of a Left value (conventionally the failure
// arm) or a Right value (the success arm). It carries no behavior beyond
// tagging; callers inspect which arm is present and act on it.
package either

// Either is a value that is either a Left[L] or a Right[R], never both.
// The zero value is a Left holding the zero L and should not be relied on;
// construct values with Left or Right.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

// Left constructs the failure arm.
func Left[L, R any](l L) Either[L, R] {
	return Either[L, R]{left: l}
}

// Right constructs the success arm.
func Right[L, R any](r R) Either[L, R] {
	return Either[L, R]{right: r, isRight: true}
}

// IsLeft reports whether the failure arm is present.
func (e Either[L, R]) IsLeft() bool { return !e.isRight }

// IsRight reports whether the success arm is present.
func (e Either[L, R]) IsRight() bool { return e.isRight }

// LeftValue returns the failure arm and true, or the zero L and false.
func (e Either[L, R]) LeftValue() (L, bool) {
	if e.isRight {
		var zero L
		return zero, false
	}
	return e.left, true
}

// RightValue returns the success arm and true, or the zero R and false.
func (e Either[L, R]) RightValue() (R, bool) {
	if !e.isRight {
		var zero R
		return zero, false
	}
	return e.right, true
}

// Fold applies onLeft or onRight depending on which arm is present.
func Fold[L, R, T any](e Either[L, R], onLeft func(L) T, onRight func(R) T) T {
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}
