// Package clock provides the scheduling primitives the overlay monitor runs on.
//
// A Clock hands out single-shot and periodic timers. Two implementations exist:
//   - Loop: a single goroutine that executes posted closures one at a time; timers
//     fire by posting their callback onto the loop, so every callback observes
//     state that no other callback is mutating.
//   - Virtual: a manually advanced clock for tests. Callbacks run synchronously
//     inside Advance on the caller's goroutine.
package clock
