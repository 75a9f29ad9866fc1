package mock

import (
	"context"

	"github.com/kndndrj/statpipe/core"
)

type sourceConfig struct {
	records           map[string][]core.Record
	statSideEffects   map[string]func(context.Context, *core.StatRequest) error
	recordStreamOpts  map[string][]RecordStreamOption
	declaredResources map[string]bool
}

type SourceOption func(*sourceConfig)

// SourceWithRecords registers records returned by stat calls for resource.
func SourceWithRecords(resource string, records ...core.Record) SourceOption {
	return func(c *sourceConfig) {
		_, ok := c.records[resource]
		if ok {
			panic("records already registered for resource: " + resource)
		}

		c.records[resource] = records
		c.declaredResources[resource] = true
	}
}

func SourceWithStatSideEffect(resource string, sideEffect func(context.Context, *core.StatRequest) error) SourceOption {
	return func(c *sourceConfig) {
		_, ok := c.statSideEffects[resource]
		if ok {
			panic("side effect already registered for resource: " + resource)
		}

		c.statSideEffects[resource] = sideEffect
		c.declaredResources[resource] = true
	}
}

func SourceWithRecordStreamOpts(resource string, opts ...RecordStreamOption) SourceOption {
	return func(c *sourceConfig) {
		c.recordStreamOpts[resource] = append(c.recordStreamOpts[resource], opts...)
	}
}
