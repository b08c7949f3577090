// Package refreshable provides atoms that can be forced to recompute
// on demand, without any tracked dependency changing and without
// altering their value or write semantics.
package refreshable
