package jotai

import (
	"context"
	"fmt"
)

// ReadFunc computes the value of a derived atom. It must perform all of
// its reads through g so the store can track dependencies, and must not
// retain g after returning.
type ReadFunc[T any] func(g Getter) (T, error)

// WriteFunc handles writes to a writable atom. It receives the write
// argument and a Setter for reading and writing other atoms. Writes it
// performs join the caller's batch.
type WriteFunc[A any] func(s Setter, arg A) error

// AsyncReadFunc is the synchronous phase of an asynchronous atom. It
// runs under the store lock, performs its dependency reads through g,
// and returns a ResolveFunc that produces the value. The ResolveFunc
// runs on a background goroutine without dependency tracking.
type AsyncReadFunc[T any] func(g Getter) (ResolveFunc[T], error)

// ResolveFunc settles the value of an asynchronous atom. The context is
// canceled when the store closes.
type ResolveFunc[T any] func(ctx context.Context) (T, error)

// Getter reads atom values with dependency tracking. Read functions
// receive one; the Store itself is a Getter for untracked top-level
// reads. Use the package-level Get to read through it with types
// intact.
type Getter interface {
	resolveAtom(a AnyAtom) (any, error)
}

// Setter extends Getter with write access. Write functions receive one;
// reads through a Setter are not tracked as dependencies.
type Setter interface {
	Getter
	writeAtom(a AnyAtom, arg any) error
	commitAtom(a AnyAtom, value any) error
}

// AnyAtom is the type-erased handle shared by all atoms. It is what the
// store keys state by; two atom variables are the same atom only if
// they are the same object.
type AnyAtom interface {
	// ID returns the atom's process-unique identity.
	ID() uint64
	// Label returns the atom's debug label.
	Label() string

	base() *atomBase
}

// Readable is an atom whose value has type T. Both *Atom[T] and
// *WritableAtom[T, A] satisfy it.
type Readable[T any] interface {
	AnyAtom
	value(T)
}

// Writable is an atom that accepts write arguments of type A.
type Writable[A any] interface {
	AnyAtom
	writeArg(A)
}

// ReadWritable is an atom readable as T and writable with T, such as
// the primitives returned by NewAtom.
type ReadWritable[T any] interface {
	Readable[T]
	Writable[T]
}

// atomBase is the type-erased definition backing every atom. All
// closures trade in `any`; the generic constructors wrap and unwrap the
// static types at the boundary.
type atomBase struct {
	id    uint64
	label string

	// equals overrides defaultEquals for change detection.
	equals func(a, b any) bool

	// init is the initial value for primitive atoms; hasInit guards the
	// zero value.
	init    any
	hasInit bool

	// read computes a derived value. nil for pure primitives.
	read func(g Getter) (any, error)

	// readAsync is the two-phase read of asynchronous atoms. Mutually
	// exclusive with read.
	readAsync func(g Getter) (func(ctx context.Context) (any, error), error)

	// write handles custom write arguments. nil means direct commit of
	// the argument as the new value.
	write func(s Setter, arg any) error

	// resetArg builds the reset variant of the write argument type, or
	// nil if the argument type cannot carry a reset signal.
	resetArg func() any
}

// Atom is a read-only handle on a value of type T. Create one with
// NewDerived or NewAsync.
type Atom[T any] struct {
	b atomBase
}

// ID returns the atom's process-unique identity.
func (a *Atom[T]) ID() uint64 { return a.b.id }

// Label returns the atom's debug label.
func (a *Atom[T]) Label() string { return a.b.label }

func (a *Atom[T]) String() string { return a.b.label }

func (a *Atom[T]) base() *atomBase { return &a.b }

// value pins T for type inference. Never called.
func (a *Atom[T]) value(T) {}

// WritableAtom is an atom readable as T and writable with arguments of
// type A. Primitive atoms are WritableAtom[T, T]; atoms built on
// ResetOr arguments additionally accept a reset signal.
type WritableAtom[T, A any] struct {
	Atom[T]
}

// writeArg pins A for type inference. Never called.
func (w *WritableAtom[T, A]) writeArg(A) {}

// AtomOption configures an atom at construction.
type AtomOption func(*atomOptions)

type atomOptions struct {
	label  string
	equals func(a, b any) bool
}

// WithLabel sets the atom's debug label, used in error messages, logs
// and the devtools inspector.
func WithLabel(label string) AtomOption {
	return func(o *atomOptions) { o.label = label }
}

// EqualFunc overrides change detection for the atom's committed values.
// When a recomputation or write produces a value equal to the previous
// one, dependents are not invalidated and subscribers are not notified.
func EqualFunc[T any](eq func(a, b T) bool) AtomOption {
	return func(o *atomOptions) {
		o.equals = func(a, b any) bool {
			av, aok := a.(T)
			bv, bok := b.(T)
			return aok && bok && eq(av, bv)
		}
	}
}

func buildBase(opts []AtomOption) atomBase {
	var o atomOptions
	for _, opt := range opts {
		opt(&o)
	}
	id := nextID()
	if o.label == "" {
		o.label = fmt.Sprintf("atom%d", id)
	}
	return atomBase{id: id, label: o.label, equals: o.equals}
}

// NewAtom creates a primitive atom holding initial until written.
// Writing the current value again is a no-op: dependents are not
// invalidated and subscribers are not notified.
func NewAtom[T any](initial T, opts ...AtomOption) *WritableAtom[T, T] {
	w := &WritableAtom[T, T]{Atom: Atom[T]{b: buildBase(opts)}}
	w.b.init = initial
	w.b.hasInit = true
	w.b.resetArg = resetArgFor[T]()
	return w
}

// NewPrimitive creates a primitive atom with a custom write function.
// The write function interprets arguments of type A; it stores new
// values with SetValue, which bypasses the write function itself.
func NewPrimitive[T, A any](initial T, write WriteFunc[A], opts ...AtomOption) *WritableAtom[T, A] {
	w := &WritableAtom[T, A]{Atom: Atom[T]{b: buildBase(opts)}}
	w.b.init = initial
	w.b.hasInit = true
	w.b.write = wrapWrite(&w.b, write)
	w.b.resetArg = resetArgFor[A]()
	return w
}

// NewDerived creates a read-only atom computed from other atoms. The
// read function runs lazily on first access and again after any of the
// atoms it read is invalidated.
func NewDerived[T any](read ReadFunc[T], opts ...AtomOption) *Atom[T] {
	a := &Atom[T]{b: buildBase(opts)}
	a.b.read = func(g Getter) (any, error) {
		return read(g)
	}
	return a
}

// NewWritable creates a derived atom with write support. Reads go
// through read like NewDerived; writes invoke write, which typically
// fans the argument out to other atoms.
func NewWritable[T, A any](read ReadFunc[T], write WriteFunc[A], opts ...AtomOption) *WritableAtom[T, A] {
	w := &WritableAtom[T, A]{Atom: Atom[T]{b: buildBase(opts)}}
	w.b.read = func(g Getter) (any, error) {
		return read(g)
	}
	w.b.write = wrapWrite(&w.b, write)
	w.b.resetArg = resetArgFor[A]()
	return w
}

// NewAsync creates an atom whose value settles asynchronously. The read
// function's synchronous phase records dependencies; the returned
// ResolveFunc runs on a goroutine owned by the store. Reads before
// settlement return ErrPending; see Wait and Load.
func NewAsync[T any](read AsyncReadFunc[T], opts ...AtomOption) *Atom[T] {
	a := &Atom[T]{b: buildBase(opts)}
	a.b.readAsync = func(g Getter) (func(ctx context.Context) (any, error), error) {
		resolve, err := read(g)
		if err != nil || resolve == nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return resolve(ctx)
		}, nil
	}
	return a
}

func wrapWrite[A any](b *atomBase, write WriteFunc[A]) func(Setter, any) error {
	return func(s Setter, arg any) error {
		av, ok := arg.(A)
		if !ok {
			return fmt.Errorf("jotai: writing %s: argument %T: %w", b.label, arg, ErrWrongType)
		}
		return write(s, av)
	}
}

// Get reads the current value of a through g, computing it if needed.
// Inside a read function the access is recorded as a dependency; on a
// Store or Setter it is untracked.
func Get[T any](g Getter, a Readable[T]) (T, error) {
	v, err := g.resolveAtom(a)
	if err != nil {
		var zero T
		return zero, err
	}
	tv, ok := v.(T)
	if !ok {
		var zero T
		if v == nil {
			// A committed nil (e.g. an error or interface atom holding
			// nil) is a valid value, not a type mismatch.
			return zero, nil
		}
		return zero, fmt.Errorf("jotai: reading %s: stored %T: %w", a.Label(), v, ErrWrongType)
	}
	return tv, nil
}

// Set writes arg to a through s. For primitive atoms the argument
// becomes the new value; atoms with write functions interpret it. The
// resulting invalidations are batched and subscribers are notified once
// the outermost write returns.
func Set[A any](s Setter, a Writable[A], arg A) error {
	return s.writeAtom(a, arg)
}

// SetValue stores v directly as a's current value, bypassing its write
// function. It is intended for use inside write functions that manage
// their own atom's storage, such as reset-aware primitives.
func SetValue[T any](s Setter, a Readable[T], v T) error {
	return s.commitAtom(a, v)
}

// Update applies fn to a's current value and writes the result back.
func Update[T any](s Setter, a ReadWritable[T], fn func(T) T) error {
	cur, err := Get(s, a)
	if err != nil {
		return err
	}
	return Set(s, a, fn(cur))
}
