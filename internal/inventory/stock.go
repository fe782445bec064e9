// Package inventory holds parts stock arithmetic.
package inventory

import "errors"

// ErrInsufficientStock rejects any adjustment that would take the on-hand
// quantity below zero. The stored quantity is never mutated on rejection.
var ErrInsufficientStock = errors.New("adjustment would make stock negative")

// ApplyAdjustment returns the new on-hand quantity after a delta, or
// ErrInsufficientStock if the result would be negative.
func ApplyAdjustment(onHand, delta int) (int, error) {
	next := onHand + delta
	if next < 0 {
		return onHand, ErrInsufficientStock
	}
	return next, nil
}
