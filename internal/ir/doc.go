// Package ir provides the value and rule model shared by every adaptivity package.
//
// This package contains type definitions and their JSON encodings only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is a sealed interface; a nil Value means "undefined"
//   - Numbers are float64 and format the way a browser runtime prints them
//   - Object keys are always iterated in sorted order
//   - Inputs are decoded fresh per call; nothing here is shared mutable state
package ir
