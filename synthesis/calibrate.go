package synthesis

import (
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// A Calibration summarizes the filtered magnitudes of a recorded trace.
type Calibration struct {
	Samples int
	// Active counts samples with a nonzero filtered magnitude.
	Active    int
	Mean      float64
	StdDev    float64
	Peak      float64
	Suggested float64
}

// Calibrate runs samples through the high-pass filter of cfg and suggests a MaxMagnitude that
// maps the given percentile of the nonzero filtered magnitudes to full intensity.
func Calibrate(samples []r3.Vector, cfg Config, percentile float64) (Calibration, error) {
	if percentile <= 0 || percentile > 100 {
		return Calibration{}, errors.Errorf("percentile must be within (0, 100], got %v", percentile)
	}
	filter := NewHighPassFilter3D(cfg.HighPassAlpha)
	magnitudes := make(stats.Float64Data, 0, len(samples))
	for _, s := range samples {
		if m := filter.Filter(s).Norm(); m > 0 {
			magnitudes = append(magnitudes, m)
		}
	}
	result := Calibration{Samples: len(samples), Active: len(magnitudes)}
	if len(magnitudes) == 0 {
		return result, errors.New("trace has no motion to calibrate against")
	}

	var err error
	if result.Mean, err = stats.Mean(magnitudes); err != nil {
		return result, err
	}
	if result.StdDev, err = stats.StandardDeviation(magnitudes); err != nil {
		return result, err
	}
	if result.Peak, err = stats.Max(magnitudes); err != nil {
		return result, err
	}
	if result.Suggested, err = stats.Percentile(magnitudes, percentile); err != nil {
		return result, err
	}
	return result, nil
}
