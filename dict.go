/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

import "encoding/binary"

// DataModel records the width of int, long, and pointer for the
// platform a container's types describe. It plays the same role the
// teacher's small package-level threshold knobs (settings.go) play for
// slab sizing, just carried per-container instead of globally, since a
// process may hold containers for more than one target at once.
type DataModel struct {
	IntSize  uint32
	LongSize uint32
	PtrSize  uint32
}

var (
	DataModelILP32 = DataModel{IntSize: 4, LongSize: 4, PtrSize: 4}
	DataModelLP64  = DataModel{IntSize: 4, LongSize: 8, PtrSize: 8}
)

type flagBits uint8

const (
	flagReadWrite flagBits = 1 << iota
	flagDirty
	flagChild
)

// Dict is the mutable CTF type dictionary described by spec.md: the
// aggregate of a dynamic type store (C3), a dynamic variable store (C4),
// a running string-growth counter, and — once at least one Update has
// succeeded — a read-only view serialized from that state.
//
// The handle itself (the *Dict pointer callers hold) is stable across
// Update calls; only its interior view is replaced. serialize.go gets
// this by assigning the freshly parsed view to the view field, with no
// copy of the Dict itself.
type Dict struct {
	view *roView // nil until the first successful Update

	types *typeStore
	vars  *varStore

	// Per-kind name indexes mirroring every root-visible named type
	// currently in types (see lookup.go). Kept live rather than only
	// derived from the frozen view — see lookup.go's header comment.
	byStruct map[string]TypeID
	byUnion  map[string]TypeID
	byEnum   map[string]TypeID
	byName   map[string]TypeID

	strGrowth uint32

	nextID                TypeID
	oldID                 TypeID
	snapshotCount         uint64
	lastCommittedSnapshot uint64

	flags flagBits

	parent     *Dict
	parentName string

	model     DataModel
	byteOrder binary.ByteOrder

	refCount int32

	lastErr error
}

// NewDict creates an empty, writable, top-level container.
func NewDict(model DataModel) *Dict {
	return &Dict{
		types:     newTypeStore(),
		vars:      newVarStore(),
		byStruct:  map[string]TypeID{},
		byUnion:   map[string]TypeID{},
		byEnum:    map[string]TypeID{},
		byName:    map[string]TypeID{},
		nextID:    1,
		flags:     flagReadWrite,
		model:     model,
		byteOrder: binary.LittleEndian,
		refCount:  1,
	}
}

// NewChildDict creates an empty, writable container whose type ids are
// tagged as belonging to a child id space (§4.4, §6.1's cth_parname).
// Full parent/child lookup resolution is out of scope (spec.md §1); only
// the id tagging and parent-name serialization are implemented.
func NewChildDict(parent *Dict, parentName string) *Dict {
	d := NewDict(parent.model)
	d.flags |= flagChild
	d.parent = parent
	d.parentName = parentName
	return d
}

func (d *Dict) isReadWrite() bool { return d.flags&flagReadWrite != 0 }
func (d *Dict) isDirty() bool     { return d.flags&flagDirty != 0 }
func (d *Dict) isChild() bool     { return d.flags&flagChild != 0 }

func (d *Dict) markDirty() { d.flags |= flagDirty }
func (d *Dict) clearDirty() { d.flags &^= flagDirty }

func (d *Dict) typeLimit() TypeID {
	if d.isChild() {
		return maxPType
	}
	return maxType
}

// IsDirty reports whether any mutation has occurred since the last
// successful Update.
func (d *Dict) IsDirty() bool { return d.isDirty() }

// NextID returns the id that the next add_* call will allocate.
func (d *Dict) NextID() TypeID { return d.nextID }

// LastError returns the error from the most recent failing call, mirror
// of the source's per-container last-error slot (§7).
func (d *Dict) LastError() error { return d.lastErr }

func (d *Dict) setErr(err error) error {
	d.lastErr = err
	return err
}

// allocID assigns the next type id, applying the child-space tag if this
// container is a child. It does not itself check the READWRITE/FULL
// preconditions; add_generic (builder.go) does that before calling it.
func (d *Dict) allocID() TypeID {
	idx := d.nextID
	d.nextID++
	if d.isChild() {
		return idx | childIDFlag
	}
	return idx
}
