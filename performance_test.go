package wizard

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSubmitOverheadUnder1ms verifies the non-functional performance
// requirement that the engine overhead per navigation request (excluding
// form logic) is < 1ms.
//
// We walk a wizard with many trivially-valid steps to amortize timer
// granularity and incidental overhead, then measure average duration per
// request.
func TestSubmitOverheadUnder1ms(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eng := NewInMemoryEngine()

	const N = 100 // enough requests for a stable average without taking long

	flow := New("perf-walk")
	required := make(map[StepID][]string, N)
	for i := 0; i < N; i++ {
		id := StepID(fmt.Sprintf("s%03d", i))
		flow = flow.Step(id)
		required[id] = []string{"v"}
	}
	flow = flow.Forms(listForms(required))
	require.NoError(t, flow.Register(eng))

	data := map[string][]string{"v": {"x"}}
	walk := func(instance string) {
		for i := 0; i < N; i++ {
			_, err := Handle(ctx, eng, flow.Name(), instance, Request{Intent: IntentSubmit, Data: data})
			require.NoError(t, err)
		}
	}

	// Warm-up walk to avoid measuring one-time costs (e.g., allocations,
	// caches).
	walk("warmup")

	start := time.Now()
	walk("measured")
	total := time.Since(start)

	avgPerRequest := total / N
	if avgPerRequest >= time.Millisecond {
		t.Fatalf("average engine overhead per request too high: %v (total %v for %d requests)", avgPerRequest, total, N)
	}
}

// TestMinimalMemoryFootprintUnder5MB verifies the non-functional
// requirement that a minimal in-memory configuration stays under ~5MB of
// heap usage.
//
// We force a GC, capture HeapAlloc, create an in-memory engine with one
// registered wizard, force another GC and compare HeapAlloc again. This
// provides a conservative estimate of retained heap usage attributable to
// engine initialization.
func TestMinimalMemoryFootprintUnder5MB(t *testing.T) {
	t.Parallel()

	// Help the GC by minimizing noise from other goroutines.
	runtime.GC()
	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	eng := NewInMemoryEngine()
	signupFlow().MustRegister(eng)
	// Keep eng alive until after measurement.
	runtime.KeepAlive(eng)

	runtime.GC()
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	const fiveMB = 5 * 1024 * 1024
	used := int64(after.HeapAlloc) - int64(before.HeapAlloc)
	if used < 0 {
		used = 0 // be robust to minor fluctuations
	}

	if used >= fiveMB {
		t.Fatalf("minimal memory footprint too high: %d bytes (>= %d)", used, fiveMB)
	}
}
