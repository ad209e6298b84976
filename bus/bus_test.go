// bus/bus_test.go
package bus

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestPublishReachesExactSubscriber(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	sub := c.Subscribe(T("dds", "params"))
	c.Publish(c.NewMessage(T("dds", "params"), "1000:128:0", false))

	expectPayload(t, sub, "1000:128:0")
}

func TestRetainedReplayOnSubscribe(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("config", "app"), "persist", true))
	sub := c.Subscribe(T("config", "app"))

	expectPayload(t, sub, "persist")
}

func TestNonRetainedWithoutSubscriberIsDropped(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("uptime"), "gone", false))
	sub := c.Subscribe(T("uptime"))
	expectNothing(t, sub)
}

func TestWildcardSingleLevel(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")

	anyTask := c.Subscribe(T("task", "+", "runs"))
	blinkOnly := c.Subscribe(T("task", "blink", "+"))
	other := c.Subscribe(T("task", "+", "mode"))

	c.Publish(b.NewMessage(T("task", "blink", "runs"), "r1", false))
	expectPayload(t, anyTask, "r1")
	expectPayload(t, blinkOnly, "r1")
	expectNothing(t, other)

	// "+" needs exactly one level.
	c.Publish(b.NewMessage(T("task", "runs"), "r2", false))
	expectNothing(t, anyTask)
	expectNothing(t, blinkOnly)
}

func TestWildcardMultiLevel(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")

	all := c.Subscribe(T("#"))
	dds := c.Subscribe(T("dds", "#"))
	exact := c.Subscribe(T("dds"))

	c.Publish(b.NewMessage(T("dds"), "p0", false))
	expectPayload(t, all, "p0")
	expectPayload(t, dds, "p0")
	expectPayload(t, exact, "p0")

	c.Publish(b.NewMessage(T("dds", "ack", 3), "p1", false))
	expectPayload(t, all, "p1")
	expectPayload(t, dds, "p1")
	expectNothing(t, exact)
}

func TestRetainedReplayWithWildcards(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("config"), "root", true))
	c.Publish(b.NewMessage(T("config", "app"), "app", true))
	c.Publish(b.NewMessage(T("config", "dds"), "dds", true))
	c.Publish(b.NewMessage(T("config", "dds", "defaults"), "defaults", true))

	got := drain(t, c.Subscribe(T("config", "#")), 4)
	assertSameSet(t, got, []string{"root", "app", "dds", "defaults"})

	got = drain(t, c.Subscribe(T("config", "+")), 2)
	assertSameSet(t, got, []string{"app", "dds"})
}

func TestRetainedClearedByNilPayload(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("store", "status"), "ok", true))
	c.Publish(b.NewMessage(T("store", "status"), nil, true))

	expectNothing(t, c.Subscribe(T("store", "#")))
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	sub := c.Subscribe(T("seq"))

	for _, p := range []string{"a", "b", "c"} {
		c.Publish(b.NewMessage(T("seq"), p, false))
	}
	got := drain(t, sub, 2)
	if got[0] != "b" || got[1] != "c" {
		t.Fatalf("got %v, want [b c]", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	sub := c.Subscribe(T("x"))
	sub.Unsubscribe()

	if _, ok := <-sub.Channel(); ok {
		t.Fatal("channel still open after Unsubscribe")
	}
	// Second call is a no-op.
	c.Unsubscribe(sub)
}

func TestRequestWaitAndReply(t *testing.T) {
	b := NewBus(4)
	req := b.NewConnection("cli")
	resp := b.NewConnection("store")

	in := resp.Subscribe(T("store", "load"))
	go func() {
		if m, ok := <-in.Channel(); ok {
			resp.Reply(m, "loaded", false)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	msg := b.NewMessage(T("store", "load"), nil, false)
	reply, err := req.RequestWait(ctx, msg)
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if reply.Payload != "loaded" {
		t.Fatalf("reply payload = %v", reply.Payload)
	}
	if len(msg.ReplyTo) == 0 {
		t.Fatal("ReplyTo not assigned")
	}
}

func TestRequestWaitTimeout(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("cli")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := c.RequestWait(ctx, b.NewMessage(T("nobody"), nil, false)); err == nil {
		t.Fatal("expected timeout")
	}
}

func TestTopicAppendDoesNotAlias(t *testing.T) {
	base := make(Topic, 1, 4)
	base[0] = "dds"
	a := base.Append("ack")
	b := base.Append("params")
	if a[1] != "ack" || b[1] != "params" {
		t.Fatalf("append aliased: %v %v", a, b)
	}
}

func TestInvalidTokenPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for slice token")
		}
	}()
	_ = T([]byte{1})
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func expectPayload(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case m := <-sub.Channel():
		if s, ok := m.Payload.(string); !ok || s != want {
			t.Fatalf("payload = %v, want %q", m.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNothing(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case m := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", m)
	case <-time.After(40 * time.Millisecond):
	}
}

func drain(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.After(300 * time.Millisecond)
	for len(out) < n {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				t.Fatalf("non-string payload %#v", m.Payload)
			}
			out = append(out, s)
		case <-deadline:
			t.Fatalf("got %d of %d messages: %v", len(out), n, out)
		}
	}
	return out
}

func assertSameSet(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
