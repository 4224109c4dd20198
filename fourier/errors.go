package fourier

import (
	"errors"
	"fmt"

	"github.com/bob-anderson-ok/magexp/field"
)

// ErrInvalidAxis is the class of every axis selection failure. Use errors.Is
// to test for it, or errors.As with *InvalidAxisError for the details.
var ErrInvalidAxis = errors.New("fourier: invalid axis")

// InvalidAxisError reports an axis list the engine cannot transform along.
type InvalidAxisError struct {
	Axis   field.Axis
	Reason string
}

func (e *InvalidAxisError) Error() string {
	if e.Reason == "no axes given" {
		return "fourier: invalid axis: no axes given"
	}
	return fmt.Sprintf("fourier: invalid axis %v: %s", e.Axis, e.Reason)
}

func (e *InvalidAxisError) Is(target error) bool {
	return target == ErrInvalidAxis
}

func checkAxes(axes []field.Axis) error {
	if len(axes) == 0 {
		return &InvalidAxisError{Axis: -1, Reason: "no axes given"}
	}
	var seen [3]bool
	for _, a := range axes {
		if !a.Valid() {
			return &InvalidAxisError{Axis: a, Reason: "not one of x, y, z"}
		}
		if seen[a] {
			return &InvalidAxisError{Axis: a, Reason: "given more than once"}
		}
		seen[a] = true
	}
	return nil
}
