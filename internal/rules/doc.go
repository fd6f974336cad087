// Package rules prepares authored rules and decides which of them fire.
//
// A check runs three steps from this package, in order:
//
//  1. EnsureDefaultWrong guarantees a fallback incorrect rule exists.
//  2. Preprocess assigns priorities, stamps order/correct/default into each
//     event's params and resolves embedded expressions in condition values
//     against the call's script environment.
//  3. Compile validates operator names and condition shapes, and Run
//     evaluates every compiled rule against a fact snapshot.
//
// Every function works on copies. Rules passed in by the caller are never
// modified.
package rules
