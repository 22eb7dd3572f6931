// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"slices"
	"sync"
	"time"
)

// batcher collects changed paths and flushes them to fn once no new path has
// arrived for delay. Flushes are serialized; a flush that finds fn still busy
// re-arms the timer so the pending paths go out with the next one.
type batcher struct {
	delay time.Duration
	fn    func(ctx context.Context, changed []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	busy    bool
	stopped bool
}

func newBatcher(delay time.Duration, fn func(context.Context, []string)) *batcher {
	return &batcher{delay: delay, fn: fn, pending: make(map[string]struct{})}
}

// add records rel and restarts the quiet window.
func (b *batcher) add(ctx context.Context, rel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.pending[rel] = struct{}{}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.delay, func() { b.flush(ctx) })
		return
	}
	b.timer.Reset(b.delay)
}

func (b *batcher) flush(ctx context.Context) {
	b.mu.Lock()
	if b.stopped || ctx.Err() != nil || len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	if b.busy {
		b.timer.Reset(b.delay)
		b.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(b.pending))
	for rel := range b.pending {
		changed = append(changed, rel)
	}
	clear(b.pending)
	b.busy = true
	b.mu.Unlock()

	slices.Sort(changed)
	b.fn(ctx, changed)

	b.mu.Lock()
	b.busy = false
	b.mu.Unlock()
}

// stop discards pending paths and prevents further flushes.
func (b *batcher) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
	clear(b.pending)
}
