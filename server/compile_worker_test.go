package server

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestCompileWorkerSerializes(t *testing.T) {
	w := NewCompileWorker()
	defer w.Stop()

	var (
		wg      sync.WaitGroup
		running int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Do(func() (interface{}, error) {
				running++
				if running > maxSeen {
					maxSeen = running
				}
				running--
				return nil, nil
			})
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("saw %d concurrent jobs, want 1", maxSeen)
	}
}

func TestCompileWorkerResults(t *testing.T) {
	w := NewCompileWorker()
	defer w.Stop()

	v, err := w.Do(func() (interface{}, error) { return 42, nil })
	if err != nil || v.(int) != 42 {
		t.Errorf("Do = %v, %v; want 42, nil", v, err)
	}

	want := errors.New("boom")
	if _, err := w.Do(func() (interface{}, error) { return nil, want }); !errors.Is(err, want) {
		t.Errorf("Do error = %v, want %v", err, want)
	}
}

func TestCompileWorkerRecoversPanics(t *testing.T) {
	w := NewCompileWorker()
	defer w.Stop()

	_, err := w.Do(func() (interface{}, error) { panic("bad node") })
	if err == nil || !strings.Contains(err.Error(), "bad node") {
		t.Errorf("Do error = %v, want the panic value", err)
	}

	// The worker keeps serving after a panic.
	if v, err := w.Do(func() (interface{}, error) { return "ok", nil }); err != nil || v != "ok" {
		t.Errorf("Do after panic = %v, %v", v, err)
	}
}

func TestCompileWorkerStop(t *testing.T) {
	w := NewCompileWorker()
	w.Stop()
	w.Stop()

	if _, err := w.Do(func() (interface{}, error) { return nil, nil }); !errors.Is(err, ErrWorkerStopped) {
		t.Errorf("Do after Stop = %v, want ErrWorkerStopped", err)
	}
}
