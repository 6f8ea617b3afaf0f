// Package scheduler provides a plugin owning a bounded background job
// scheduler backed by an ants worker pool.
//
// At most Limit jobs run at once. Further jobs wait in a FIFO queue of up to
// PendingLimit entries and Spawn returns without blocking; once the queue is
// full Spawn fails with ErrFull. Jobs receive a context that is cancelled
// when the plugin terminates, and queued jobs that never started are dropped.
package scheduler
