package mock

import (
	"time"

	"github.com/kndndrj/statpipe/core"
)

type recordStreamConfig struct {
	nextSleep time.Duration
	meta      *core.Meta
	header    core.Header
	failAt    int
	failErr   error
}

type RecordStreamOption func(*recordStreamConfig)

func RecordStreamWithNextSleep(s time.Duration) RecordStreamOption {
	return func(c *recordStreamConfig) {
		c.nextSleep = s
	}
}

func RecordStreamWithMeta(meta *core.Meta) RecordStreamOption {
	return func(c *recordStreamConfig) {
		c.meta = meta
	}
}

func RecordStreamWithHeader(header core.Header) RecordStreamOption {
	return func(c *recordStreamConfig) {
		c.header = header
	}
}

// RecordStreamWithError makes the call to Next after index records fail.
func RecordStreamWithError(index int, err error) RecordStreamOption {
	return func(c *recordStreamConfig) {
		c.failAt = index
		c.failErr = err
	}
}
