package app

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// HandleSignals calls stop for every SIGINT or SIGTERM received until the
// returned release function is called.
func HandleSignals(stop func()) (release func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-signals:
				stop()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(signals)
			close(done)
		})
	}
}
