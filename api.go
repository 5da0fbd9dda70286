/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

// This file is the public façade over lookup.go's §6.2 services: thin,
// exported wrappers so callers outside the package can introspect a
// container the same way C5/C7 do internally.

// TypeKind returns the kind of id.
func (d *Dict) TypeKind(id TypeID) (Kind, error) { return d.typeKind(id) }

// TypeSize returns the byte size of id.
func (d *Dict) TypeSize(id TypeID) (uint64, error) { return d.typeSize(id) }

// TypeAlign returns the natural alignment, in bytes, of id.
func (d *Dict) TypeAlign(id TypeID) (uint64, error) { return d.typeAlign(id) }

// TypeEncoding returns the (format, offset, bits) encoding of an
// INTEGER or FLOAT type.
func (d *Dict) TypeEncoding(id TypeID) (Encoding, error) { return d.typeEncoding(id) }

// TypeReference returns the referent of a POINTER, TYPEDEF, or
// qualifier type.
func (d *Dict) TypeReference(id TypeID) (TypeID, error) { return d.typeReference(id) }

// ArrayInfoOf returns an ARRAY type's contents/index/count triple.
func (d *Dict) ArrayInfoOf(id TypeID) (ArrayInfo, error) { return d.arrayInfo(id) }

// MemberInfo looks up a STRUCT/UNION member (or ENUM enumerator) by name.
func (d *Dict) MemberInfo(id TypeID, name string) (Member, bool) { return d.memberInfo(id, name) }

// MemberIter visits id's members (or an ENUM's enumerators) in
// declaration order, stopping early if fn returns false.
func (d *Dict) MemberIter(id TypeID, fn func(Member) bool) { d.memberIter(id, fn) }

// LookupByName resolves a root-visible name in the per-kind index for
// kind (STRUCT/UNION/ENUM have dedicated indexes; every other kind
// shares one catch-all index).
func (d *Dict) LookupByName(kind Kind, name string) (TypeID, bool) { return d.lookupByName(kind, name) }

// LookupVar resolves a variable name to its bound type id.
func (d *Dict) LookupVar(name string) (TypeID, bool) {
	if v := d.vars.lookup(name); v != nil {
		return v.typ, true
	}
	return 0, false
}

// TypeInfo is a convenience combining TypeKind and TypeSize.
func (d *Dict) TypeInfo(id TypeID) (Kind, uint64, error) {
	kind, err := d.typeKind(id)
	if err != nil {
		return KindUnknown, 0, err
	}
	size, err := d.typeSize(id)
	if err != nil {
		return KindUnknown, 0, err
	}
	return kind, size, nil
}

// Model returns the data model this container's types describe.
func (d *Dict) Model() DataModel { return d.model }

// Checksum returns the current read-only view's circlehash digest, letting
// a caller holding the raw serialized buffer cross-check it against this
// view without recomputing the blake3 half of Update's fingerprint. It
// returns false if Update has never succeeded.
func (d *Dict) Checksum() (uint64, bool) {
	if d.view == nil {
		return 0, false
	}
	return d.view.checksum(), true
}
