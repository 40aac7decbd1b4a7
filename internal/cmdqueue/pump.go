package cmdqueue

import "time"

// PumpConfig configures Run, the queue's drain loop. Grounded directly
// on the teacher's message.DeliveryConfig / RunDelivery: a stop channel,
// the queue's own notify channel, and a fallback ticker so a queue with
// a stuck Notify() signal still makes progress.
type PumpConfig struct {
	Queue  *Queue
	Client string // "" for the server-wide scope
	Stop   <-chan struct{}
	// OnDispatch, if set, is called after every Next() call that
	// dispatched at least one item (e.g. to trigger a redraw).
	OnDispatch func(dispatched int)
}

// Run drains cfg.Queue for cfg.Client until cfg.Stop is closed, exactly
// mirroring message.RunDelivery's select/drain shape: a select over
// Stop, the queue's Notify channel, and a 1-second ticker, then an inner
// loop calling Next() until it reports zero progress.
func Run(cfg PumpConfig) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-cfg.Stop:
			return
		case <-cfg.Queue.Notify():
		case <-ticker.C:
		}

		for {
			n := cfg.Queue.Next(cfg.Client)
			if n == 0 {
				break
			}
			if cfg.OnDispatch != nil {
				cfg.OnDispatch(n)
			}
		}
	}
}
