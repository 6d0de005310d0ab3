package utils

// Guard runs a cleanup function when a constructor that acquired a resource bails out early. The
// deferred OnFail is a no-op once Success has been called:
//
//	f, err := os.OpenFile(path, os.O_WRONLY, 0)
//	guard := NewGuard(func() { f.Close() })
//	defer guard.OnFail()
//	if err := probe(f); err != nil {
//		return nil, err
//	}
//	guard.Success()
//	return f, nil
type Guard struct {
	OnFail  func()
	success bool
}

// NewGuard returns a Guard that calls cleanup from OnFail unless Success was called first.
func NewGuard(cleanup func()) *Guard {
	g := &Guard{}
	g.OnFail = func() {
		if !g.success {
			cleanup()
		}
	}
	return g
}

// Success disarms the cleanup.
func (g *Guard) Success() {
	g.success = true
}
