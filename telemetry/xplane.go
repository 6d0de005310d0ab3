package telemetry

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"net"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/haptics/logging"
)

const (
	// DefaultXPlaneAddr is where X-Plane sends "Data Output" packets when configured for UDP to
	// this machine.
	DefaultXPlaneAddr = ":49005"

	xplaneHeader     = "DATA"
	xplaneHeaderLen  = 5 // "DATA" plus one internal-use byte.
	xplaneRecordLen  = 4 + 8*4
	xplaneGLoadIndex = 4 // "Mach, VVI, G-load"

	// positions of the g-load values within the "Mach, VVI, G-load" record.
	gLoadNormal = 4
	gLoadAxial  = 5
	gLoadSide   = 6
)

var errNotDataPacket = errors.New("not an X-Plane DATA packet")

// ListenPacket opens the UDP socket used by XPlaneSource. It's a variable so tests can hand in
// an in-memory connection.
var ListenPacket = func(ctx context.Context, addr string) (net.PacketConn, error) {
	var lc net.ListenConfig
	return lc.ListenPacket(ctx, "udp", addr)
}

// DecodeGLoad extracts the normal/axial/side g-loads from an X-Plane DATA packet. The returned
// sample maps side to X, axial to Y and normal to Z. ok is false when the packet is a valid DATA
// packet without the g-load record.
func DecodeGLoad(packet []byte) (s Sample, ok bool, err error) {
	if len(packet) < xplaneHeaderLen || !bytes.Equal(packet[:4], []byte(xplaneHeader)) {
		return Sample{}, false, errNotDataPacket
	}
	body := packet[xplaneHeaderLen:]
	if len(body)%xplaneRecordLen != 0 {
		return Sample{}, false, errors.Errorf("DATA packet body of %d bytes is not a whole number of records", len(body))
	}
	for off := 0; off < len(body); off += xplaneRecordLen {
		record := body[off : off+xplaneRecordLen]
		if binary.LittleEndian.Uint32(record[:4]) != xplaneGLoadIndex {
			continue
		}
		value := func(i int) float64 {
			start := 4 + 4*i
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(record[start : start+4])))
		}
		return Sample{X: value(gLoadSide), Y: value(gLoadAxial), Z: value(gLoadNormal)}, true, nil
	}
	return Sample{}, false, nil
}

// EncodeGLoad builds a DATA packet carrying a single g-load record. It is the inverse of
// DecodeGLoad and is used by the replay tooling and tests.
func EncodeGLoad(s Sample) []byte {
	packet := make([]byte, xplaneHeaderLen+xplaneRecordLen)
	copy(packet, xplaneHeader)
	record := packet[xplaneHeaderLen:]
	binary.LittleEndian.PutUint32(record[:4], xplaneGLoadIndex)
	put := func(i int, v float64) {
		start := 4 + 4*i
		binary.LittleEndian.PutUint32(record[start:start+4], math.Float32bits(float32(v)))
	}
	put(gLoadNormal, s.Z)
	put(gLoadAxial, s.Y)
	put(gLoadSide, s.X)
	return packet
}

// XPlaneSource listens for X-Plane UDP data output and forwards per-packet g-load deltas.
type XPlaneSource struct {
	Addr   string
	logger logging.Logger
}

// NewXPlaneSource returns a source listening on addr, or DefaultXPlaneAddr when addr is empty.
func NewXPlaneSource(addr string, logger logging.Logger) *XPlaneSource {
	if addr == "" {
		addr = DefaultXPlaneAddr
	}
	return &XPlaneSource{Addr: addr, logger: logger}
}

// Run reads packets until ctx is cancelled. Malformed packets are logged and skipped.
func (xs *XPlaneSource) Run(ctx context.Context, sink Sink) error {
	conn, err := ListenPacket(ctx, xs.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen for X-Plane data on %s", xs.Addr)
	}
	stopped := make(chan struct{})
	defer close(stopped)
	goutils.PanicCapturingGo(func() {
		select {
		case <-ctx.Done():
		case <-stopped:
		}
		goutils.UncheckedError(conn.Close())
	})

	xs.logger.Infow("listening for X-Plane data output", "addr", xs.Addr)
	deltas := NewDeltaTracker(sink)
	buf := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to read X-Plane data")
		}
		s, ok, err := DecodeGLoad(buf[:n])
		if err != nil {
			xs.logger.Debugw("ignoring packet", "error", err)
			continue
		}
		if !ok {
			continue
		}
		deltas.Send(s)
	}
}
