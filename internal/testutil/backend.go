package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hupe1980/insighthub/core"
)

// ErrUnreachable is returned by UnreachableBackend.
var ErrUnreachable = errors.New("backend unreachable")

// UnreachableBackend is a durable backend whose every operation fails.
type UnreachableBackend struct {
	pings atomic.Int64
}

// Pings returns how often Ping was called.
func (b *UnreachableBackend) Pings() int { return int(b.pings.Load()) }

func (b *UnreachableBackend) Name() string { return "unreachable" }

func (b *UnreachableBackend) Ping(context.Context) error {
	b.pings.Add(1)
	return ErrUnreachable
}

func (b *UnreachableBackend) Set(context.Context, string, string, []byte, time.Duration) error {
	return ErrUnreachable
}

func (b *UnreachableBackend) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, ErrUnreachable
}

func (b *UnreachableBackend) List(context.Context, string) ([]core.MemoryEntry, error) {
	return nil, ErrUnreachable
}

func (b *UnreachableBackend) Delete(context.Context, string) error { return ErrUnreachable }

func (b *UnreachableBackend) Close() error { return nil }
