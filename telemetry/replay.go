package telemetry

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// DefaultReplayRate is the playback rate used when none is given, roughly a simulator frame rate.
const DefaultReplayRate = 60

// ReadTrace parses a recorded trace. Every non-empty line holds three comma separated numbers
// (x, y, z); lines starting with '#' are comments.
func ReadTrace(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	var samples []Sample
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read trace")
		}
		var v [3]float64
		for i, field := range record {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				line, _ := reader.FieldPos(i)
				return nil, errors.Wrapf(err, "bad value on line %d", line)
			}
		}
		samples = append(samples, Sample{X: v[0], Y: v[1], Z: v[2]})
	}
}

// ReadTraceFile is ReadTrace on the named file.
func ReadTraceFile(path string) ([]Sample, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTrace(f)
}

// ReplaySource plays back a recorded trace at a fixed rate.
type ReplaySource struct {
	Samples []Sample
	// Rate is in samples per second.
	Rate float64
	// Absolute marks traces of raw g-forces; they are converted to frame deltas on the way out.
	Absolute bool
	// Loop restarts playback at the end of the trace instead of returning.
	Loop bool
	Clock clock.Clock
}

// Run sends the samples one per period until the trace ends or ctx is cancelled.
func (rs *ReplaySource) Run(ctx context.Context, sink Sink) error {
	if len(rs.Samples) == 0 {
		return errors.New("trace has no samples")
	}
	clk := rs.Clock
	if clk == nil {
		clk = clock.New()
	}
	rate := rs.Rate
	if rate <= 0 {
		rate = DefaultReplayRate
	}
	if rs.Absolute {
		sink = NewDeltaTracker(sink)
	}

	ticker := clk.Ticker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()
	for i := 0; ; i++ {
		if i == len(rs.Samples) {
			if !rs.Loop {
				return nil
			}
			i = 0
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		sink.Send(rs.Samples[i])
	}
}
