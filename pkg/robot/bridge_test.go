package robot

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// fakePort replays scripted replies and records everything written.
type fakePort struct {
	in     *strings.Reader
	out    bytes.Buffer
	closed bool
}

func newFakePort(replies string) *fakePort {
	return &fakePort{in: strings.NewReader(replies)}
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *fakePort) Close() error                { p.closed = true; return nil }

var testChannels = BridgeChannels{NW: 1, NE: 2, SE: 3, SW: 4, Arm: 5, Sweeper: 7}

func TestBridge_SetWheels(t *testing.T) {
	port := newFakePort("")
	b := NewBridge(port, testChannels)
	ctx := context.Background()

	if err := b.SetWheels(ctx, WheelCommand{NW: -50, NE: -50, SE: 50, SW: 150}); err != nil {
		t.Fatalf("SetWheels: %v", err)
	}
	want := "1 1 -50\n1 2 -50\n1 3 50\n1 4 100\n"
	if got := port.out.String(); got != want {
		t.Errorf("wrote %q, want %q", got, want)
	}

	// Only changed channels are resent.
	port.out.Reset()
	if err := b.SetWheels(ctx, WheelCommand{NW: -50, NE: -50, SE: 50, SW: 0}); err != nil {
		t.Fatalf("SetWheels: %v", err)
	}
	if got := port.out.String(); got != "1 4 0\n" {
		t.Errorf("second write %q, want only sw", got)
	}
}

func TestBridge_Arm(t *testing.T) {
	port := newFakePort("42\n")
	b := NewBridge(port, testChannels)
	ctx := context.Background()

	if err := b.ResetArmEncoder(ctx); err != nil {
		t.Fatalf("ResetArmEncoder: %v", err)
	}
	if err := b.SetArmPower(ctx, 40); err != nil {
		t.Fatalf("SetArmPower: %v", err)
	}
	ticks, err := b.ArmEncoder(ctx)
	if err != nil {
		t.Fatalf("ArmEncoder: %v", err)
	}
	if ticks != 42 {
		t.Errorf("ArmEncoder = %d, want 42", ticks)
	}
	want := "4 5\n1 5 40\n3 5\n"
	if got := port.out.String(); got != want {
		t.Errorf("wrote %q, want %q", got, want)
	}
}

func TestBridge_Heading(t *testing.T) {
	b := NewBridge(newFakePort("370\n-90\n"), testChannels)
	ctx := context.Background()

	for _, want := range []int{10, 270} {
		got, err := b.Heading(ctx)
		if err != nil {
			t.Fatalf("Heading: %v", err)
		}
		if got != want {
			t.Errorf("Heading = %d, want %d", got, want)
		}
	}
}

func TestBridge_ProtocolError(t *testing.T) {
	b := NewBridge(newFakePort("what\n"), testChannels)
	_, err := b.ArmEncoder(context.Background())
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("ArmEncoder error = %v, want ErrProtocol", err)
	}
}

// lagPort answers each command with scripted chunks queued when the command
// is written. An empty chunk is a read timeout.
type lagPort struct {
	replies map[string][]string
	queue   []string
	out     bytes.Buffer
}

func (p *lagPort) Read(b []byte) (int, error) {
	if len(p.queue) == 0 {
		return 0, nil
	}
	chunk := p.queue[0]
	p.queue = p.queue[1:]
	return copy(b, chunk), nil
}

func (p *lagPort) Write(b []byte) (int, error) {
	p.out.Write(b)
	for _, line := range strings.SplitAfter(string(b), "\n") {
		p.queue = append(p.queue, p.replies[line]...)
	}
	return len(b), nil
}

func (p *lagPort) Close() error { return nil }

func TestBridge_LateReplyDropped(t *testing.T) {
	// The heading reply comes after the read gave up; the encoder answers
	// on time.
	timeouts := make([]string, 100)
	port := &lagPort{replies: map[string][]string{
		"5\n":   append(timeouts, "27", "1\n"),
		"3 5\n": {"7\n"},
	}}
	b := NewBridge(port, testChannels)
	ctx := context.Background()

	if _, err := b.Heading(ctx); err == nil {
		t.Fatal("Heading succeeded without a reply")
	}
	ticks, err := b.ArmEncoder(ctx)
	if err != nil {
		t.Fatalf("ArmEncoder: %v", err)
	}
	if ticks != 7 {
		t.Errorf("ArmEncoder = %d, want 7 (late heading reply leaked)", ticks)
	}

	// Link is back in step.
	port.replies["3 5\n"] = []string{"9\n"}
	if ticks, err := b.ArmEncoder(ctx); err != nil || ticks != 9 {
		t.Errorf("ArmEncoder = %d, %v, want 9", ticks, err)
	}
}

func TestBridge_Sweeper(t *testing.T) {
	port := newFakePort("")
	b := NewBridge(port, testChannels)
	ctx := context.Background()

	for _, code := range []int{255, 255, 128, 0} {
		if err := b.SetServo(ctx, Sweeper, code); err != nil {
			t.Fatalf("SetServo(%d): %v", code, err)
		}
	}
	want := "2 7 255\n2 7 128\n2 7 0\n"
	if got := port.out.String(); got != want {
		t.Errorf("wrote %q, want %q", got, want)
	}

	if err := b.SetServo(ctx, Mount, 10); err == nil {
		t.Error("SetServo(mount) should fail on the bridge")
	}
}

func TestBridge_WaitStart(t *testing.T) {
	b := NewBridge(newFakePort("init\nready\nstart\n"), testChannels)
	if err := b.WaitStart(context.Background()); err != nil {
		t.Fatalf("WaitStart: %v", err)
	}

	b = NewBridge(newFakePort("init\n"), testChannels)
	if err := b.WaitStart(context.Background()); err == nil {
		t.Error("WaitStart should fail when the link ends before start")
	}
}

func TestBridge_Cancelled(t *testing.T) {
	port := newFakePort("")
	b := NewBridge(port, testChannels)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.SetWheels(ctx, Uniform(10)); !errors.Is(err, context.Canceled) {
		t.Errorf("SetWheels error = %v, want context.Canceled", err)
	}
	if port.out.Len() != 0 {
		t.Errorf("cancelled write reached the port: %q", port.out.String())
	}
	if err := b.Close(); err != nil || !port.closed {
		t.Errorf("Close() = %v, closed = %v", err, port.closed)
	}
}
