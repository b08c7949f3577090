// Package features provides higher-level atom abstractions built on
// the core store in pkg/jotai.
//
// # Subsystems
//
// Each subsystem is in its own sub-package and can be imported
// independently:
//
//   - resettable: atoms that restore their initial or derived value on Reset
//   - refreshable: atoms that can be forced to refetch on demand
//   - family: keyed collections of atoms created lazily per key
//   - selector: narrowed views over wider atoms with change cut-off
//   - resource: async data loading with loading/error/ready states,
//     retries and stale-time windows
//   - persistent: atoms backed by a pkg/storage backend
//
// The root module re-exports the common constructors, so most
// applications only import github.com/leobastiani/jotai.
package features
