// Package resettable provides atoms that can be restored to a default
// value with jotai.Reset: reset atoms snap back to a fixed initial
// value, default atoms fall back to re-running their read function.
package resettable
