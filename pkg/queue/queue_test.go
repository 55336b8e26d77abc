package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiway/sfc/pkg/player"
	"github.com/hiway/sfc/pkg/sample"
)

// blockingPlayer holds every Play call until release is closed.
type blockingPlayer struct {
	release chan struct{}
	mu      sync.Mutex
	played  []string
}

func (p *blockingPlayer) Play(s *sample.Sample) error {
	<-p.release
	p.mu.Lock()
	p.played = append(p.played, s.Name)
	p.mu.Unlock()
	return nil
}

func (p *blockingPlayer) Close() error { return nil }

func named(name string) *sample.Sample {
	return &sample.Sample{Name: name, Data: make([]int16, 10), SampleRate: 44100}
}

func TestQueuePlaysInOrderAndDrains(t *testing.T) {
	stub := player.NewStubPlayer(zerolog.Nop())
	q := New("test", 2, stub, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var want []string
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("s%d", i)
		want = append(want, name)
		if err := q.Push(ctx, named(name)); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}
	q.Close()
	if err := q.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	got := stub.Played()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("played %v, want %v", got, want)
	}
}

func TestQueuePushAfterClose(t *testing.T) {
	q := New("test", 1, player.NewStubPlayer(zerolog.Nop()), zerolog.Nop())
	q.Close()

	if err := q.Push(context.Background(), named("late")); !errors.Is(err, ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}

func TestQueuePushHonoursContext(t *testing.T) {
	p := &blockingPlayer{release: make(chan struct{})}
	q := New("test", 1, p, zerolog.Nop())
	defer func() {
		close(p.release)
		q.Stop()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var err error
	for i := 0; i < 4 && err == nil; i++ {
		err = q.Push(ctx, named(fmt.Sprintf("s%d", i)))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want context.DeadlineExceeded", err)
	}
}

func TestQueueStopEndsWait(t *testing.T) {
	p := &blockingPlayer{release: make(chan struct{})}
	q := New("test", 4, p, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, name := range []string{"a", "b"} {
		if err := q.Push(ctx, named(name)); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	q.Stop()
	close(p.release)

	if err := q.Push(ctx, named("late")); !errors.Is(err, ErrClosed) {
		t.Errorf("Push after Stop: got %v, want ErrClosed", err)
	}
	if err := q.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}
