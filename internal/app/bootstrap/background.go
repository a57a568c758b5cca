// internal/app/bootstrap/background.go
package bootstrap

import "sync"

// Stop functions for work started by Startup and BuildHandler, run in
// reverse order by Shutdown.
var (
	bgMu    sync.Mutex
	bgStops []func()
)

func onShutdown(stop func()) {
	bgMu.Lock()
	defer bgMu.Unlock()
	bgStops = append(bgStops, stop)
}

func stopBackground() {
	bgMu.Lock()
	stops := bgStops
	bgStops = nil
	bgMu.Unlock()

	for i := len(stops) - 1; i >= 0; i-- {
		stops[i]()
	}
}
