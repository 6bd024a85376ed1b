// Package channels buffers database notifications in typed Go channels.
//
// A Hub sits between the goroutine that owns a LISTEN connection and the
// consumer that drains notifications:
//
//   - The producer side calls Publish for every notification and Fail once
//     the connection is lost.
//   - The consumer side calls Wait to block for the next notification and
//     Buffered to take one that already arrived without blocking.
//
// # Failure
//
// After Fail, Buffered keeps returning queued notifications first and then
// reports the failure; Wait does the same once the queue is empty.
//
//	hub := NewHub(cfg)
//	defer hub.Close()
//
//	n, err := hub.Wait(ctx)
//	for err == nil {
//	    n, ok, err = hub.Buffered()
//	    ...
//	}
package channels
