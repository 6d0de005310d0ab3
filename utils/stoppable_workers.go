package utils

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// StoppableWorkers owns a fixed set of goroutines sharing one cancellable context. Panics in a
// worker are captured and logged instead of crashing the process.
type StoppableWorkers struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	active   sync.WaitGroup
	stopOnce sync.Once
}

// NewStoppableWorkers starts each function in its own goroutine.
func NewStoppableWorkers(funcs ...func(context.Context)) *StoppableWorkers {
	return NewStoppableWorkersWithContext(context.Background(), funcs...)
}

// NewStoppableWorkersWithContext is like NewStoppableWorkers, but the workers are also cancelled
// along with parent. Stop must still be called to wait for them.
func NewStoppableWorkersWithContext(parent context.Context, funcs ...func(context.Context)) *StoppableWorkers {
	ctx, cancel := context.WithCancel(parent)
	sw := &StoppableWorkers{ctx: ctx, cancel: cancel}
	sw.active.Add(len(funcs))
	for _, f := range funcs {
		goutils.PanicCapturingGo(func() {
			defer sw.active.Done()
			f(ctx)
		})
	}
	return sw
}

// Stop cancels the workers and waits for all of them to return. Calling it again is a no-op
// that still waits.
func (sw *StoppableWorkers) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.stopOnce.Do(sw.cancel)
	sw.active.Wait()
}
