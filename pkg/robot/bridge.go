package robot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Bridge command codes. Each command is one text line: the code followed by
// space-separated integer arguments. Queries answer with one integer line.
const (
	cmdMotor        = 1 // 1 <channel> <power>
	cmdServo        = 2 // 2 <channel> <code>
	cmdEncoder      = 3 // 3 <channel> -> <ticks>
	cmdResetEncoder = 4 // 4 <channel>
	cmdHeading      = 5 // 5 -> <degrees>
)

// startLine is emitted by the bridge when the match start gate opens.
const startLine = "start"

// ErrProtocol is returned when the bridge answers with something unexpected.
var ErrProtocol = errors.New("bridge protocol error")

// Bridge is a motor controller board on a serial line. It drives the wheel and
// arm motors, the sweeper servo, and reports the arm encoder and compass heading.
//
// All transactions share one link and are serialized; writes are cached per
// channel so repeated identical commands are not resent.
type Bridge struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
	r    *bufio.Reader
	w    *bufio.Writer
	ch   BridgeChannels

	pending    string
	stale      bool // a query failed; its reply may still arrive
	motcache   map[int]int
	servocache map[int]int
}

// OpenBridge opens the serial port and returns a connected bridge.
func OpenBridge(cfg BridgeConfig) (*Bridge, error) {
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = 115200
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open bridge %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return NewBridge(port, cfg.Channels), nil
}

// NewBridge wraps an already open link.
func NewBridge(port io.ReadWriteCloser, ch BridgeChannels) *Bridge {
	return &Bridge{
		port:       port,
		r:          bufio.NewReader(port),
		w:          bufio.NewWriter(port),
		ch:         ch,
		motcache:   make(map[int]int),
		servocache: make(map[int]int),
	}
}

// Close closes the serial link.
func (b *Bridge) Close() error {
	return b.port.Close()
}

// SetWheels writes all four wheel powers in one flush.
func (b *Bridge) SetWheels(ctx context.Context, cmd WheelCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd = cmd.Clamped()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, wheel := range AllWheels() {
		if err := b.setMotor(b.wheelChannel(wheel), cmd.Get(wheel)); err != nil {
			return fmt.Errorf("set wheel %s: %w", wheel, err)
		}
	}
	return b.flush()
}

// SetArmPower sets the arm motor power.
func (b *Bridge) SetArmPower(ctx context.Context, power int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.setMotor(b.ch.Arm, ClampPower(power)); err != nil {
		return fmt.Errorf("set arm power: %w", err)
	}
	return b.flush()
}

// ArmEncoder reads the arm encoder in ticks.
func (b *Bridge) ArmEncoder(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	v, err := b.query("%d %d", cmdEncoder, b.ch.Arm)
	if err != nil {
		return 0, fmt.Errorf("read arm encoder: %w", err)
	}
	return v, nil
}

// ResetArmEncoder zeroes the arm encoder.
func (b *Bridge) ResetArmEncoder(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := fmt.Fprintf(b.w, "%d %d\n", cmdResetEncoder, b.ch.Arm); err != nil {
		return fmt.Errorf("reset arm encoder: %w", err)
	}
	return b.flush()
}

// SetServo writes a sweeper setpoint. The bridge only carries the sweeper.
func (b *Bridge) SetServo(ctx context.Context, ch ServoChannel, code int) error {
	if ch != Sweeper {
		return fmt.Errorf("servo %s is not wired to the bridge", ch)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	code = ClampServoCode(code)

	b.mu.Lock()
	defer b.mu.Unlock()
	num := b.ch.Sweeper
	if old, cached := b.servocache[num]; cached && old == code {
		return nil
	}
	if _, err := fmt.Fprintf(b.w, "%d %d %d\n", cmdServo, num, code); err != nil {
		return fmt.Errorf("set servo %s: %w", ch, err)
	}
	b.servocache[num] = code
	return b.flush()
}

// Heading reads the compass heading in degrees, [0, 360).
func (b *Bridge) Heading(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	v, err := b.query("%d", cmdHeading)
	if err != nil {
		return 0, fmt.Errorf("read heading: %w", err)
	}
	return ((v % 360) + 360) % 360, nil
}

// WaitStart blocks until the bridge reports the start gate, skipping any
// other lines it prints while waiting.
func (b *Bridge) WaitStart(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := b.readLine()
		if err != nil {
			if errors.Is(err, io.ErrNoProgress) {
				continue
			}
			return fmt.Errorf("wait for start: %w", err)
		}
		if line == startLine {
			return nil
		}
	}
}

func (b *Bridge) wheelChannel(w Wheel) int {
	switch w {
	case NW:
		return b.ch.NW
	case NE:
		return b.ch.NE
	case SE:
		return b.ch.SE
	default:
		return b.ch.SW
	}
}

func (b *Bridge) setMotor(num, power int) error {
	if old, cached := b.motcache[num]; cached && old == power {
		return nil
	}
	if _, err := fmt.Fprintf(b.w, "%d %d %d\n", cmdMotor, num, power); err != nil {
		return err
	}
	b.motcache[num] = power
	return nil
}

func (b *Bridge) flush() error {
	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("flush bridge: %w", err)
	}
	return nil
}

// maxDrainReads bounds how long a drain keeps reading from a chatty link.
const maxDrainReads = 64

func (b *Bridge) query(format string, args ...any) (int, error) {
	if b.stale {
		b.drain()
	}
	if _, err := fmt.Fprintf(b.w, format+"\n", args...); err != nil {
		return 0, err
	}
	if err := b.flush(); err != nil {
		return 0, err
	}
	line, err := b.readLine()
	if err != nil {
		b.discard()
		return 0, err
	}
	v, err := strconv.Atoi(line)
	if err != nil {
		b.discard()
		return 0, fmt.Errorf("%w: reply %q", ErrProtocol, line)
	}
	return v, nil
}

// discard drops a partial reply so it cannot be taken as the answer to the
// next query.
func (b *Bridge) discard() {
	b.pending = ""
	b.r.Reset(b.port)
	b.stale = true
}

// drain reads and drops whatever arrived since the last failed query, until
// a read times out with no data.
func (b *Bridge) drain() {
	buf := make([]byte, 256)
	for range maxDrainReads {
		n, err := b.port.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}
	b.stale = false
}

// readLine returns the next complete line. Partial data from a timed-out read
// is kept for the next call.
func (b *Bridge) readLine() (string, error) {
	s, err := b.r.ReadString('\n')
	if err != nil {
		b.pending += s
		return "", err
	}
	line := strings.TrimSpace(b.pending + s)
	b.pending = ""
	return line, nil
}
