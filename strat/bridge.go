package strat

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
)

// Bridge implements the motion interfaces over the UDP link to the motion
// board. Commands go out as CSV datagrams; the board streams status frames
// back, and the most recent frame answers the non-blocking queries.
type Bridge struct {
	cmd    *net.UDPConn
	status *net.UDPConn

	mu    sync.RWMutex
	frame statusFrame
}

var _ MotionController = (*Bridge)(nil)

// statusFrame is one decoded board report: "flags,x,y,heading,vt,vr".
type statusFrame struct {
	flags   Outcome
	pos     Point
	heading float64
	vt, vr  float64
}

// DialBridge connects the command socket and starts listening for status
// frames.
func DialBridge(cfg BridgeConfig) (*Bridge, error) {
	cmdAddr, err := net.ResolveUDPAddr("udp", cfg.CommandAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve command addr: %w", err)
	}
	cmd, err := net.DialUDP("udp", nil, cmdAddr)
	if err != nil {
		return nil, fmt.Errorf("dial command addr: %w", err)
	}

	stAddr, err := net.ResolveUDPAddr("udp", cfg.StatusAddr)
	if err != nil {
		cmd.Close()
		return nil, fmt.Errorf("resolve status addr: %w", err)
	}
	status, err := net.ListenUDP("udp", stAddr)
	if err != nil {
		cmd.Close()
		return nil, fmt.Errorf("listen status addr: %w", err)
	}

	b := &Bridge{cmd: cmd, status: status}

	bufSize := cfg.ReadBuffer
	if bufSize <= 0 {
		bufSize = 2048
	}
	go func() {
		buf := make([]byte, bufSize)
		for {
			n, _, err := status.ReadFromUDP(buf)
			if err != nil {
				return
			}
			frame, err := parseStatusFrame(buf[:n])
			if err != nil {
				continue
			}
			b.mu.Lock()
			b.frame = frame
			b.mu.Unlock()
		}
	}()

	return b, nil
}

// Close releases both sockets.
func (b *Bridge) Close() error {
	if b == nil {
		return nil
	}
	var errCmd, errStatus error
	if b.cmd != nil {
		errCmd = b.cmd.Close()
	}
	if b.status != nil {
		errStatus = b.status.Close()
	}
	if errCmd != nil {
		return errCmd
	}
	return errStatus
}

func (b *Bridge) send(payload string) {
	if b == nil || b.cmd == nil {
		return
	}
	_, _ = b.cmd.Write([]byte(payload))
}

// GotoXY sends a straight-line trajectory command.
func (b *Bridge) GotoXY(target Point) {
	b.send(fmt.Sprintf("goto,%.1f,%.1f", target.X, target.Y))
}

// TurnTo sends an in-place rotation command.
func (b *Bridge) TurnTo(angle float64) {
	b.send(fmt.Sprintf("turn,%.4f", angle))
}

// CircleArc sends an arc trajectory command.
func (b *Bridge) CircleArc(center Point, section float64) {
	b.send(fmt.Sprintf("circle,%.1f,%.1f,%.4f", center.X, center.Y, section))
}

// SetPosition seeds the board's odometry.
func (b *Bridge) SetPosition(p Point, heading float64) {
	b.send(fmt.Sprintf("pos,%.1f,%.1f,%.4f", p.X, p.Y, heading))
}

// SetLongArm drives the long gift arm.
func (b *Bridge) SetLongArm(up bool) {
	b.send(fmt.Sprintf("arm,long,%d", boolBit(up)))
}

// SetShortArm drives the short gift arm.
func (b *Bridge) SetShortArm(up bool) {
	b.send(fmt.Sprintf("arm,short,%d", boolBit(up)))
}

// Status returns the terminal flags from the latest board frame.
func (b *Bridge) Status() Outcome {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame.flags
}

// Position returns the pose from the latest board frame.
func (b *Bridge) Position() (Point, float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame.pos, b.frame.heading
}

// InstantSpeed returns the speeds from the latest board frame.
func (b *Bridge) InstantSpeed() (float64, float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame.vt, b.frame.vr
}

// parseStatusFrame decodes a "flags,x,y,heading,vt,vr" datagram.
func parseStatusFrame(buf []byte) (statusFrame, error) {
	s := strings.TrimSpace(string(buf))
	if s == "" {
		return statusFrame{}, errors.New("empty payload")
	}
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return statusFrame{}, fmt.Errorf("expected 6 fields, got %d", len(parts))
	}

	flags, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 8)
	if err != nil {
		return statusFrame{}, fmt.Errorf("flags: %w", err)
	}
	values := make([]float64, 5)
	for i, part := range parts[1:] {
		v, err := parseF64(part)
		if err != nil {
			return statusFrame{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		values[i] = v
	}

	return statusFrame{
		flags:   Outcome(flags),
		pos:     Point{X: values[0], Y: values[1]},
		heading: values[2],
		vt:      values[3],
		vr:      values[4],
	}, nil
}

// parseF64 parses a float from a CSV field.
func parseF64(value string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
