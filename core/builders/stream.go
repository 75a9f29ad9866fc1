package builders

import (
	"errors"
	"sync"

	"github.com/kndndrj/statpipe/core"
)

var _ core.RecordStream = (*RecordStream)(nil)

// RecordStream fills the core.RecordStream interface for all sources
type RecordStream struct {
	next     func() (core.Record, error)
	hasNext  func() bool
	close    func()
	callback func()
	meta     *core.Meta
	header   core.Header
	once     sync.Once
}

func (r *RecordStream) SetCustomHeader(header core.Header) {
	r.header = header
}

func (r *RecordStream) SetCallback(callback func()) {
	r.callback = callback
}

func (r *RecordStream) Meta() *core.Meta {
	return r.meta
}

func (r *RecordStream) Header() core.Header {
	return r.header
}

func (r *RecordStream) HasNext() bool {
	return r.hasNext()
}

func (r *RecordStream) Next() (core.Record, error) {
	rec, err := r.next()
	if err != nil {
		r.Close()
		return nil, err
	}
	return rec, nil
}

func (r *RecordStream) Close() {
	r.once.Do(func() {
		r.close()
		if r.callback != nil {
			r.callback()
		}
	})
	r.hasNext = func() bool {
		return false
	}
}

// RecordStreamBuilder builds the record stream
type RecordStreamBuilder struct {
	next    func() (core.Record, error)
	hasNext func() bool
	header  core.Header
	close   func()
	meta    *core.Meta
}

func NewRecordStreamBuilder() *RecordStreamBuilder {
	return &RecordStreamBuilder{
		next:    func() (core.Record, error) { return nil, core.ErrStreamDrained },
		hasNext: func() bool { return false },
		header:  core.Header{},
		close:   func() {},
		meta:    &core.Meta{},
	}
}

func (b *RecordStreamBuilder) WithNextFunc(fn func() (core.Record, error), has func() bool) *RecordStreamBuilder {
	b.next = fn
	b.hasNext = has
	return b
}

func (b *RecordStreamBuilder) WithHeader(header core.Header) *RecordStreamBuilder {
	b.header = header
	return b
}

func (b *RecordStreamBuilder) WithCloseFunc(fn func()) *RecordStreamBuilder {
	b.close = fn
	return b
}

func (b *RecordStreamBuilder) WithMeta(meta *core.Meta) *RecordStreamBuilder {
	b.meta = meta
	return b
}

func (b *RecordStreamBuilder) Build() *RecordStream {
	return &RecordStream{
		next:    b.next,
		hasNext: b.hasNext,
		header:  b.header,
		close:   b.close,
		meta:    b.meta,
	}
}

// Collect drains a stream into a slice of records and closes it.
func Collect(stream core.RecordStream) ([]core.Record, error) {
	defer stream.Close()

	var out []core.Record
	for stream.HasNext() {
		rec, err := stream.Next()
		if errors.Is(err, core.ErrStreamDrained) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
