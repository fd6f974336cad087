// Package script implements the expression language embedded in rule
// values and state mutations.
//
// Source text is lexed and parsed into a typed AST, then evaluated by a
// tree-walking interpreter against an Environment. Every evaluation runs
// under a Budget (steps and call depth) and honours context cancellation,
// so authored scripts cannot hang a check.
//
// References to state are written in braces and may contain any character
// except braces:
//
//	{stage.slider.value} * 2
//	let {session.visits} = {session.visits} + 1;
//	fn clamp(x, lo, hi) => x < lo ? lo : (x > hi ? hi : x);
//
// Environments are built per call by NewEnvironment and are never shared
// between checks. The parsed standard library is immutable and shared.
package script
