package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestClamp(t *testing.T) {
	test.That(t, Clamp(0.5, 0, 1), test.ShouldEqual, 0.5)
	test.That(t, Clamp(-3, 0, 1), test.ShouldEqual, 0)
	test.That(t, Clamp(7, 1, 5), test.ShouldEqual, 5)
	test.That(t, Clamp(math.NaN(), 1, 5), test.ShouldEqual, 1)
	test.That(t, Clamp(math.Inf(1), 1, 5), test.ShouldEqual, 5)
}

func TestRoundToUint8(t *testing.T) {
	test.That(t, RoundToUint8(0), test.ShouldEqual, 0)
	test.That(t, RoundToUint8(0.49), test.ShouldEqual, 0)
	test.That(t, RoundToUint8(0.5), test.ShouldEqual, 1)
	test.That(t, RoundToUint8(254.6), test.ShouldEqual, 255)
	test.That(t, RoundToUint8(765), test.ShouldEqual, 255)
	test.That(t, RoundToUint8(-12), test.ShouldEqual, 0)
}
