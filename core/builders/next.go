package builders

import (
	"github.com/kndndrj/statpipe/core"
)

// NextSingle creates next and hasNext functions from a provided single value
func NextSingle(value any) (func() (core.Record, error), func() bool) {
	has := true

	// iterator functions
	next := func() (core.Record, error) {
		if !has {
			return nil, core.ErrStreamDrained
		}
		has = false
		return value, nil
	}

	hasNext := func() bool {
		return has
	}

	return next, hasNext
}

// NextSlice creates next and hasNext functions from provided values
// preprocessor is an optional function which parses a single value from slice before returning it
func NextSlice[T any](values []T, preprocess func(T) any) (func() (core.Record, error), func() bool) {
	index := 0

	hasNext := func() bool {
		return index < len(values)
	}

	// iterator functions
	next := func() (core.Record, error) {
		if !hasNext() {
			return nil, core.ErrStreamDrained
		}

		var rec core.Record = values[index]
		if preprocess != nil {
			rec = preprocess(values[index])
		}
		index++
		return rec, nil
	}

	return next, hasNext
}

// NextNil creates next and hasNext functions that don't return anything (no records)
func NextNil() (func() (core.Record, error), func() bool) {
	hasNext := func() bool {
		return false
	}

	// iterator functions
	next := func() (core.Record, error) {
		return nil, core.ErrStreamDrained
	}

	return next, hasNext
}

// NextYield creates next and hasNext functions from a producer function.
// Records passed to yield are returned in order; an error returned by fn is
// returned by the call to next after the last record. hasNext blocks until
// the producer yields or returns.
func NextYield(fn func(yield func(core.Record)) error) (func() (core.Record, error), func() bool) {
	type item struct {
		rec core.Record
		err error
	}

	ch := make(chan item, 10)
	go func() {
		defer close(ch)
		err := fn(func(v core.Record) {
			ch <- item{rec: v}
		})
		if err != nil {
			ch <- item{err: err}
		}
	}()

	var pending *item
	hasNext := func() bool {
		if pending != nil {
			return true
		}
		it, ok := <-ch
		if !ok {
			return false
		}
		pending = &it
		return true
	}

	next := func() (core.Record, error) {
		if !hasNext() {
			return nil, core.ErrStreamDrained
		}
		it := *pending
		pending = nil
		return it.rec, it.err
	}

	return next, hasNext
}
