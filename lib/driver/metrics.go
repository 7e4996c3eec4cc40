package driver

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Operation Metrics
// --------------------------------------------------------------------------

// observeOp counts one driver operation and starts its latency sample. The
// returned func finishes the sample. Metrics are registered in the global
// VictoriaMetrics set and can be exposed with metrics.WritePrometheus.
func observeOp(op string) func() {
	metrics.GetOrCreateCounter(fmt.Sprintf(`gkv_driver_ops_total{op=%q}`, op)).Inc()
	start := time.Now()
	h := metrics.GetOrCreateHistogram(fmt.Sprintf(`gkv_driver_op_duration_seconds{op=%q}`, op))
	return func() {
		h.UpdateDuration(start)
	}
}

// asyncQueued tracks the number of asynchronous calls waiting for a worker.
var asyncQueued = metrics.GetOrCreateCounter(`gkv_driver_async_queued`)
