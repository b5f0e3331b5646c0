package metrics

import (
	"context"
	"runtime"
	"time"
)

// RunSystemCollector refreshes the memory and goroutine gauges every refresh
// interval until ctx is done.
func (m *Manager) RunSystemCollector(ctx context.Context) {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	m.collectSystem()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectSystem()
		}
	}
}

func (m *Manager) collectSystem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.Alloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// StartSystemCollector runs the global manager's system collector in a
// goroutine. It stops when ctx is cancelled.
func StartSystemCollector(ctx context.Context) {
	go globalManager.RunSystemCollector(ctx)
}

// RefreshInterval reports how often system gauges are refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}
