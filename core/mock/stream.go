package mock

import (
	"fmt"
	"time"

	"github.com/kndndrj/statpipe/core"
)

func newNext(records []core.Record) (func() (core.Record, error), func() bool) {
	index := 0

	hasNext := func() bool {
		return index < len(records)
	}

	// iterator functions
	next := func() (core.Record, error) {
		if !hasNext() {
			return nil, core.ErrStreamDrained
		}

		rec := records[index]
		index++
		return rec, nil
	}

	return next, hasNext
}

type RecordStream struct {
	next    func() (core.Record, error)
	hasNext func() bool
	config  *recordStreamConfig
	closed  bool
}

// NewRecordStream returns a mocked record stream with provided records.
func NewRecordStream(records []core.Record, opts ...RecordStreamOption) *RecordStream {
	config := &recordStreamConfig{
		nextSleep: 0,
		meta:      &core.Meta{},
		header:    core.Header{},
	}
	for _, opt := range opts {
		opt(config)
	}

	next, hasNext := newNext(records)

	return &RecordStream{
		next:    next,
		hasNext: hasNext,
		config:  config,
	}
}

func (rs *RecordStream) Meta() *core.Meta {
	return rs.config.meta
}

func (rs *RecordStream) Header() core.Header {
	return rs.config.header
}

func (rs *RecordStream) Next() (core.Record, error) {
	time.Sleep(rs.config.nextSleep)
	if rs.config.failAt >= 0 && rs.config.failErr != nil {
		if rs.config.failAt == 0 {
			return nil, rs.config.failErr
		}
		rs.config.failAt--
	}
	return rs.next()
}

func (rs *RecordStream) HasNext() bool {
	return !rs.closed && rs.hasNext()
}

func (rs *RecordStream) Close() {
	rs.closed = true
}

// NewRecords returns a slice of records in form of:
//
//	{ "id": <index>(int), "name": "row_<index>"(string) }
//
// where the first index is "from" and the last one is one less than "to".
func NewRecords(from, to int) []core.Record {
	var records []core.Record

	for i := from; i < to; i++ {
		records = append(records, map[string]any{"id": i, "name": fmt.Sprintf("row_%d", i)})
	}
	return records
}
