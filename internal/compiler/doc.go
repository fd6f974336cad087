// Package compiler loads authored rule documents and checks them before
// they reach the engine.
//
// Rule documents are JSON, YAML or CUE. Each holds either a bare list of
// rules or an object with a "rules" list. Every document is checked against
// an embedded CUE schema (field types, required event type), decoded into
// ir.Rule values, then validated for problems the schema cannot express:
// unknown operators, malformed condition trees and duplicate ids.
// Validation reports every problem found rather than stopping at the first.
package compiler
