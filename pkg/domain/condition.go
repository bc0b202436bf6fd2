package domain

import (
	"errors"
	"fmt"
)

// Condition is a precondition evaluated after arguments are parsed and
// before the handler runs. A non-nil error aborts the dispatch.
type Condition func(cc *CommandContext) error

// All passes when every condition passes; it reports the first failure.
func All(conds ...Condition) Condition {
	return func(cc *CommandContext) error {
		for _, c := range conds {
			if err := c(cc); err != nil {
				return err
			}
		}
		return nil
	}
}

// Any passes when at least one condition passes. With no conditions it passes.
func Any(conds ...Condition) Condition {
	return func(cc *CommandContext) error {
		if len(conds) == 0 {
			return nil
		}
		var errs []error
		for _, c := range conds {
			err := c(cc)
			if err == nil {
				return nil
			}
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}
}

// Requires passes when the context holds a value for key.
func Requires[T any](key Key[T]) Condition {
	return func(cc *CommandContext) error {
		if !cc.Has(key) {
			return fmt.Errorf("%w: %s", ErrKeyMissing, key)
		}
		return nil
	}
}

// Check evaluates conds in order and wraps the first failure in a ConditionError.
func Check(cmd *Command, cc *CommandContext) error {
	for _, c := range cmd.Conditions {
		if err := c(cc); err != nil {
			return &ConditionError{Route: cmd.Route, Err: err}
		}
	}
	return nil
}
