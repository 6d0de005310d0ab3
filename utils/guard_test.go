package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestGuard(t *testing.T) {
	open := func(fail bool) (cleaned bool) {
		guard := NewGuard(func() { cleaned = true })
		defer guard.OnFail()
		if fail {
			return
		}
		guard.Success()
		return
	}

	test.That(t, open(true), test.ShouldBeTrue)
	test.That(t, open(false), test.ShouldBeFalse)
}
