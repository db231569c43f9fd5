package authgate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func collectEvents(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()
	events := make([]AuditEvent, 0, want)
	timeout := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("collected %d events, want %d: %+v", len(events), want, events)
		}
	}
	return events
}

func TestAuditTrailCoversSessionLifecycle(t *testing.T) {
	b := newTestBackend(t)
	sink := NewChannelSink(64)

	c, err := NewBuilder().
		WithBaseURL(b.srv.URL).
		WithAuditSink(sink).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(c.Close)

	mustLogin(t, c)
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	events := collectEvents(t, sink, 2)
	if events[0].EventType != AuditLoginSuccess {
		t.Fatalf("first event = %q, want %q", events[0].EventType, AuditLoginSuccess)
	}
	if events[0].UserID != "u-17" {
		t.Fatalf("login event user = %q, want u-17", events[0].UserID)
	}
	if events[1].EventType != AuditLogout {
		t.Fatalf("second event = %q, want %q", events[1].EventType, AuditLogout)
	}
	for _, ev := range events {
		if ev.Timestamp.IsZero() {
			t.Fatalf("event %q missing timestamp", ev.EventType)
		}
	}
}

func TestAuditRecordsForcedLogout(t *testing.T) {
	b := newTestBackend(t)
	sink := NewChannelSink(64)

	c, err := NewBuilder().
		WithBaseURL(b.srv.URL).
		WithAuditSink(sink).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(c.Close)

	mustLogin(t, c)
	b.expireAccess()
	b.setFailRefresh(true)

	_ = c.Do(context.Background(), Call{Method: "GET", Path: "/api/widgets"}, nil)

	events := collectEvents(t, sink, 3)
	types := make(map[string]int, len(events))
	for _, ev := range events {
		types[ev.EventType]++
	}
	if types[AuditRefreshFailure] != 1 {
		t.Fatalf("refresh failure events = %d, want 1 (%v)", types[AuditRefreshFailure], types)
	}
	if types[AuditForcedLogout] != 1 {
		t.Fatalf("forced logout events = %d, want 1 (%v)", types[AuditForcedLogout], types)
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 32}, sink)

	const events = 10
	for i := 0; i < events; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditRequestReplayed})
	}
	d.Close()

	scanner := bufio.NewScanner(&buf)
	var lines int
	for scanner.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("undecodable audit line: %v", err)
		}
		lines++
	}
	if lines != events {
		t.Fatalf("drained %d events, want %d", lines, events)
	}
}

func TestDispatcherDropsUnderBackpressure(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event occupies the worker, one fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under backpressure")
	}
	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(_ context.Context, _ AuditEvent) {
	<-s.release
}

func TestEmitAfterCloseIsNoop(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, NoOpSink{})
	d.Close()
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	d.Close()
}

func TestDisabledAuditHasNoDispatcher(t *testing.T) {
	if d := newAuditDispatcher(AuditConfig{Enabled: false}, NoOpSink{}); d != nil {
		t.Fatal("disabled audit must not start a dispatcher")
	}
	var d *auditDispatcher
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must read zero drops")
	}
}
