package ctf

import "fmt"

type Error interface {
	// returns true if the error is fatal
	IsFatal() bool
	// and anything else that is needed to be an error
	error
}

// ReadOnlyError is returned when a mutating call is made on a container
// whose READWRITE flag is clear.
type ReadOnlyError struct{}

// NewReadOnlyError constructs a ReadOnlyError
func NewReadOnlyError() *ReadOnlyError {
	return &ReadOnlyError{}
}

func (e *ReadOnlyError) Error() string {
	return "container is read-only"
}

// IsFatal returns true if the error is fatal
func (e *ReadOnlyError) IsFatal() bool {
	return false
}

// FullError is returned when allocating the next type id would exceed
// the container's type-id limit (CTF_MAX_TYPE, or CTF_MAX_PTYPE for a
// child container).
type FullError struct {
	nextID TypeID
	limit  TypeID
}

// NewFullError constructs a FullError
func NewFullError(nextID, limit TypeID) *FullError {
	return &FullError{nextID: nextID, limit: limit}
}

func (e *FullError) Error() string {
	return fmt.Sprintf("type id %d would exceed the container's limit of %d", e.nextID, e.limit)
}

// IsFatal returns true if the error is fatal
func (e *FullError) IsFatal() bool {
	return false
}

// DTFullError is returned when a struct, union, or enum's member list is
// already at the maximum vlen.
type DTFullError struct {
	vlen uint32
}

// NewDTFullError constructs a DTFullError
func NewDTFullError(vlen uint32) *DTFullError {
	return &DTFullError{vlen: vlen}
}

func (e *DTFullError) Error() string {
	return fmt.Sprintf("member list already has the maximum of %d entries", e.vlen)
}

// IsFatal returns true if the error is fatal
func (e *DTFullError) IsFatal() bool {
	return false
}

// BadIDError is returned when a type id argument does not name a type
// known to the referencing container.
type BadIDError struct {
	id TypeID
}

// NewBadIDError constructs a BadIDError
func NewBadIDError(id TypeID) *BadIDError {
	return &BadIDError{id: id}
}

func (e *BadIDError) Error() string {
	return fmt.Sprintf("unknown type id %d", e.id)
}

// IsFatal returns true if the error is fatal
func (e *BadIDError) IsFatal() bool {
	return false
}

// NotEnumError is returned when an enum-only operation targets a type of
// a different kind.
type NotEnumError struct {
	id   TypeID
	kind Kind
}

// NewNotEnumError constructs a NotEnumError
func NewNotEnumError(id TypeID, kind Kind) *NotEnumError {
	return &NotEnumError{id: id, kind: kind}
}

func (e *NotEnumError) Error() string {
	return fmt.Sprintf("type %d is %s, not an enum", e.id, e.kind)
}

// IsFatal returns true if the error is fatal
func (e *NotEnumError) IsFatal() bool {
	return false
}

// NotSOUError ("not struct-or-union") is returned when a member-adding
// operation targets a type that is neither STRUCT nor UNION.
type NotSOUError struct {
	id   TypeID
	kind Kind
}

// NewNotSOUError constructs a NotSOUError
func NewNotSOUError(id TypeID, kind Kind) *NotSOUError {
	return &NotSOUError{id: id, kind: kind}
}

func (e *NotSOUError) Error() string {
	return fmt.Sprintf("type %d is %s, not a struct or union", e.id, e.kind)
}

// IsFatal returns true if the error is fatal
func (e *NotSOUError) IsFatal() bool {
	return false
}

// NotSUEError ("not struct/union/enum") is returned when AddForward is
// asked to forward-declare a kind other than STRUCT, UNION, or ENUM.
type NotSUEError struct {
	id   TypeID
	kind Kind
}

// NewNotSUEError constructs a NotSUEError
func NewNotSUEError(id TypeID, kind Kind) *NotSUEError {
	return &NotSUEError{id: id, kind: kind}
}

func (e *NotSUEError) Error() string {
	return fmt.Sprintf("type %d is %s, not a struct, union, or enum", e.id, e.kind)
}

// IsFatal returns true if the error is fatal
func (e *NotSUEError) IsFatal() bool {
	return false
}

// DuplicateError is returned when a name collides where uniqueness is
// required: a member name within an aggregate, an enumerator name within
// an enum, or a variable name within the container.
type DuplicateError struct {
	kind string
	name string
}

// NewDuplicateError constructs a DuplicateError
func NewDuplicateError(kind, name string) *DuplicateError {
	return &DuplicateError{kind: kind, name: name}
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s name %q", e.kind, e.name)
}

// IsFatal returns true if the error is fatal
func (e *DuplicateError) IsFatal() bool {
	return false
}

// ConflictError is returned by the cross-container copier when a
// same-named destination type is incompatible with the type being
// imported.
type ConflictError struct {
	name string
	msg  string
}

// NewConflictError constructs a ConflictError
func NewConflictError(name, msg string) *ConflictError {
	return &ConflictError{name: name, msg: msg}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting definition of %q: %s", e.name, e.msg)
}

// IsFatal returns true if the error is fatal
func (e *ConflictError) IsFatal() bool {
	return false
}

// OverrollbackError is returned when a rollback target predates the
// last committed update, or names an already-committed snapshot.
type OverrollbackError struct {
	typeHWM TypeID
	oldID   TypeID
}

// NewOverrollbackError constructs an OverrollbackError
func NewOverrollbackError(typeHWM, oldID TypeID) *OverrollbackError {
	return &OverrollbackError{typeHWM: typeHWM, oldID: oldID}
}

func (e *OverrollbackError) Error() string {
	return fmt.Sprintf("rollback target %d predates the last committed update at %d", e.typeHWM, e.oldID)
}

// IsFatal returns true if the error is fatal
func (e *OverrollbackError) IsFatal() bool {
	return false
}

// CorruptError is a fatal error raised when a serialized buffer fails to
// parse, or fails the post-serialize fingerprint check before the
// read-only view is swapped in.
type CorruptError struct {
	reason string
}

// NewCorruptError constructs a CorruptError
func NewCorruptError(reason string) *CorruptError {
	return &CorruptError{reason: reason}
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt CTF buffer: %s", e.reason)
}

// IsFatal returns true if the error is fatal
func (e *CorruptError) IsFatal() bool {
	return true
}

// AllocError wraps an allocator failure. The spec treats these as
// retriable: the caller may free memory and try again.
type AllocError struct {
	err error
}

// NewAllocError constructs an AllocError
func NewAllocError(err error) *AllocError {
	return &AllocError{err: err}
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("allocation failed: %s", e.err.Error())
}

// IsFatal returns true if the error is fatal
func (e *AllocError) IsFatal() bool {
	return false
}

// Unwrap returns the wrapped err
func (e AllocError) Unwrap() error {
	return e.err
}
