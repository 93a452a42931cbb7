// Package timeutil provides Timer, a thin wrapper around time.AfterFunc that
// exposes its state and remaining time.
//
// Basic usage:
//
//	tmr := timeutil.AfterFunc(5*time.Second, func() {
//	    log.Println("Timer expired!")
//	})
//	log.Println("left", tmr.Left())
//	tmr.Stop()
//
// All timer operations are thread-safe.
package timeutil
