package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hiway/sfc/pkg/player"
	"github.com/hiway/sfc/pkg/sample"
)

// ErrClosed is returned when a sample is pushed after Close or Stop.
var ErrClosed = errors.New("queue: closed")

// DefaultMaxLength is the queue capacity used when none is given.
const DefaultMaxLength = 16

// Queue plays samples one after another on a player.
type Queue struct {
	name     string
	player   player.Player
	log      zerolog.Logger
	itemChan chan *sample.Sample
	done     chan struct{}

	mu       sync.Mutex
	closed   bool
	stopOnce sync.Once
	stopChan chan struct{}
}

// New creates a queue holding at most maxLength pending samples and starts
// its playback goroutine.
func New(name string, maxLength int, p player.Player, log zerolog.Logger) *Queue {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	q := &Queue{
		name:     name,
		player:   p,
		log:      log.With().Str("queue", name).Logger(),
		itemChan: make(chan *sample.Sample, maxLength),
		done:     make(chan struct{}),
		stopChan: make(chan struct{}),
	}

	go q.run()

	return q
}

// Push queues a sample, waiting for room.
func (q *Queue) Push(ctx context.Context, s *sample.Sample) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case q.itemChan <- s:
		q.log.Trace().Str("sample", s.Name).Msg("Sample added to queue")
		return nil
	case <-q.stopChan:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting samples. Samples already queued are still played.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.itemChan)
}

// Wait blocks until the queue has been closed and drained, or stopped.
func (q *Queue) Wait(ctx context.Context) error {
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop signals the queue to stop processing items, dropping pending ones.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.log.Debug().Msg("Stopping queue")
		close(q.stopChan)
	})
	q.Close()
}

// run plays queued samples until the queue is closed and empty, or stopped.
func (q *Queue) run() {
	q.log.Debug().Msg("Queue processor started")
	defer q.log.Debug().Msg("Queue processor stopped")
	defer close(q.done)

	for {
		select {
		case <-q.stopChan:
			return
		case s, ok := <-q.itemChan:
			if !ok {
				return
			}
			q.log.Trace().
				Str("sample", s.Name).
				Int("points", s.Len()).
				Uint32("sample_rate", s.SampleRate).
				Msg("Playing queued sample")

			if err := q.player.Play(s); err != nil {
				q.log.Error().Err(err).Str("sample", s.Name).Msg("Failed to play sample")
			}
		}
	}
}
