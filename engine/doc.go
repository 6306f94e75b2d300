// Package engine implements the batch assignment algorithm.
//
// Students are split into fixed-size batches, a small trailing remainder is
// folded into the last full batch, and batches are handed to mentors in order.
// The package performs no I/O and keeps no state, so Assign can be called
// concurrently and tested without any setup.
package engine
