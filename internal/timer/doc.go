// Package timer provides the one-shot, cancelable timer primitive used for
// delayed dismissal and observer batching, with a real and a simulated clock.
package timer
