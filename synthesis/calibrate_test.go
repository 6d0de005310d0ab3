package synthesis

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestCalibrate(t *testing.T) {
	cfg := DefaultConfig()
	samples := []r3.Vector{{}, {X: 1}, {}, {}, {}}

	result, err := Calibrate(samples, cfg, 100)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Samples, test.ShouldEqual, 5)
	test.That(t, result.Active, test.ShouldEqual, 4)
	test.That(t, result.Peak, test.ShouldAlmostEqual, 0.9)
	test.That(t, result.Suggested, test.ShouldAlmostEqual, result.Peak)
	test.That(t, result.Mean, test.ShouldAlmostEqual, (0.9+0.09+0.081+0.0729)/4)
	test.That(t, result.StdDev, test.ShouldBeGreaterThan, 0)

	lower, err := Calibrate(samples, cfg, 50)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lower.Suggested, test.ShouldBeLessThan, result.Suggested)

	_, err = Calibrate(samples, cfg, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Calibrate(samples, cfg, 101)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Calibrate([]r3.Vector{{}, {}}, cfg, 95)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no motion")
}
