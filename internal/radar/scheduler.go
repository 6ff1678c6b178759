package radar

import (
	"context"
	"errors"
	"log"
	"time"
)

// StartScheduler kicks off a periodic full scan on a fixed interval. It runs
// until ctx is cancelled. A tick that lands while a manual scan is still
// running is skipped, not queued.
func StartScheduler(ctx context.Context, scanner *Scanner, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	log.Printf("[Scheduler] Enabled: full scan every %s", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("[Scheduler] Stopped")
				return
			case <-ticker.C:
				targets := scanner.Radar.List()
				handle, err := scanner.StartScan(ctx, targets, "schedule")
				if err != nil {
					if errors.Is(err, ErrScanRunning) {
						log.Printf("[Scheduler] Skipping tick: scan already in progress")
						continue
					}
					log.Printf("[Scheduler] Failed to start scan: %v", err)
					continue
				}
				// Wait so overlapping ticks collapse rather than pile up.
				select {
				case <-handle.Done():
				case <-ctx.Done():
				}
			}
		}
	}()
}
