package outbox_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"

	"github.com/mcdev12/fantasymatch/go/internal/memstore"
	"github.com/mcdev12/fantasymatch/go/internal/outbox"
)

type fakeNotifier struct {
	ch     chan *pq.Notification
	pings  atomic.Int32
	closed atomic.Bool
}

func (n *fakeNotifier) Notifications() <-chan *pq.Notification { return n.ch }

func (n *fakeNotifier) Ping() error {
	n.pings.Add(1)
	return nil
}

func (n *fakeNotifier) Close() error {
	n.closed.Store(true)
	return nil
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestListener(t *testing.T) {
	store := memstore.New(clockwork.NewFakeClock())
	seedEvents(t, store, 1)
	pub := &fakePublisher{}
	clock := clockwork.NewFakeClock()
	relay := outbox.NewRelay(store, pub, testConfig(), clock)
	notifier := &fakeNotifier{ch: make(chan *pq.Notification)}

	cfg := outbox.DefaultListenerConfig()
	listener := outbox.NewListenerWithNotifier(relay, notifier, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Start(ctx) }()

	// startup sweep relays the backlog before any notification arrives
	if err := clock.BlockUntilContext(ctx, 2); err != nil {
		t.Fatalf("listener never started its tickers: %v", err)
	}
	if n, _ := relay.Stats(); n != 1 {
		t.Fatalf("unexpected startup relay count: got=%d want=1", n)
	}
	if !listener.Running() {
		t.Fatalf("expected listener to report running")
	}

	seedEvents(t, store, 1)
	unsent, err := store.FetchUnsent(ctx, 10)
	if err != nil || len(unsent) != 1 {
		t.Fatalf("unexpected unsent events: %v %v", unsent, err)
	}
	notifier.ch <- &pq.Notification{Channel: outbox.NotifyChannel, Extra: unsent[0].ID.String()}
	waitFor(t, func() bool { n, _ := relay.Stats(); return n == 2 }, "notified event")

	// a reconnect sweeps rows whose notification was lost
	seedEvents(t, store, 1)
	notifier.ch <- nil
	waitFor(t, func() bool { n, _ := relay.Stats(); return n == 3 }, "reconnect sweep")

	clock.Advance(cfg.PingInterval)
	waitFor(t, func() bool { return notifier.pings.Load() >= 1 }, "ping")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !notifier.closed.Load() {
		t.Fatalf("expected notifier to be closed")
	}
	if listener.Running() {
		t.Fatalf("expected listener to report stopped")
	}
}
