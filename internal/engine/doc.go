// Package engine runs adaptivity checks.
//
// A check takes a learner's state, an authored rule list and a scoring
// context and produces one Result:
//
//  1. A fresh script environment is built and the state assigned into it.
//  2. Disabled rules are dropped and the builtin default incorrect rule is
//     appended when no enabled rule plays that role.
//  3. Rules are preprocessed (priorities, event params, condition values
//     evaluated against the environment) and compiled.
//  4. The environment is snapshotted into facts and every rule evaluated
//     against them. Evaluation may run concurrently; firings come back in
//     rule order.
//  5. Fired events are resolved into the correct/incorrect outcome and
//     scored.
//
// Every call owns its environment, so an Engine is safe for concurrent use
// and the same inputs always give the same result. When a Recorder is
// configured each check is written with its inputs and content hashes, and
// Replay re-evaluates recorded checks to prove that property holds.
//
// Recorded checks are stamped with a monotonic seq from the engine's
// logical clock, never wall-clock time.
package engine
