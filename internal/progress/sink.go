package progress

import (
	"context"
	"sync"
)

// Sink accepts ordered pipeline status events. The orchestrator depends only
// on this interface; transport adapters decide how events reach a caller.
type Sink interface {
	Publish(ctx context.Context, message string) error
}

// NopSink discards events. Useful for tests and fire-and-forget runs.
type NopSink struct{}

func (NopSink) Publish(context.Context, string) error { return nil }

// BufferSink records events in emission order and fans them out to
// subscribers. A late subscriber first receives the buffered history, so a
// client attaching after the pipeline started still sees every event in
// order. Close marks end-of-stream; events already delivered stay delivered.
type BufferSink struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []string
	closed bool
}

func NewBufferSink() *BufferSink {
	b := &BufferSink{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *BufferSink) Publish(_ context.Context, message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.events = append(b.events, message)
	b.cond.Broadcast()
	return nil
}

// Subscribe returns a channel yielding the buffered history followed by live
// events, closed at end-of-stream. A slow reader never blocks Publish. The
// delivery goroutine exits when the stream closes; ctx cancellation stops
// delivery as soon as the reader is abandoned.
func (b *BufferSink) Subscribe(ctx context.Context) <-chan string {
	ch := make(chan string)

	go func() {
		defer close(ch)

		// Wake parked waiters when the reader goes away, not just on the
		// next Publish or Close. Broadcast under the lock so a waiter
		// between its ctx check and cond.Wait cannot miss the wakeup.
		stop := context.AfterFunc(ctx, func() {
			b.mu.Lock()
			b.cond.Broadcast()
			b.mu.Unlock()
		})
		defer stop()

		next := 0
		for {
			b.mu.Lock()
			for next >= len(b.events) && !b.closed && ctx.Err() == nil {
				b.cond.Wait()
			}
			if ctx.Err() != nil || next >= len(b.events) {
				b.mu.Unlock()
				return
			}
			event := b.events[next]
			next++
			b.mu.Unlock()

			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// Events returns a copy of everything published so far.
func (b *BufferSink) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.events))
	copy(out, b.events)
	return out
}

// Close ends the stream. Safe to call more than once.
func (b *BufferSink) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.cond.Broadcast()
}
