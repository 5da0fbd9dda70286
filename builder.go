/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

import "errors"

// C5: the public type-builder API. Every method here validates its
// inputs and leaves the container unchanged on error, mirroring the
// teacher's precondition-then-mutate shape in array.go's
// Insert/Append (bounds/size checked before any slab is touched).

// addGeneric is the common prologue shared by every add_* operation
// (spec.md §4.4): reject if read-only, reject if the next id would
// overflow the container's limit, otherwise allocate a record and mark
// the container dirty. Indexing the new record by name is left to the
// caller, since FORWARD records are indexed under their *referenced*
// kind rather than their own.
func (d *Dict) addGeneric(name string, kind Kind, root bool) (*typeDef, error) {
	if !d.isReadWrite() {
		return nil, d.setErr(NewReadOnlyError())
	}
	limit := d.typeLimit()
	if d.nextID > limit {
		return nil, d.setErr(NewFullError(d.nextID, limit))
	}

	id := d.allocID()
	td := &typeDef{id: id, name: name, kind: kind, root: root}
	d.types.insert(td)
	if name != "" {
		d.strGrowth += nameGrowth(name)
	}
	d.markDirty()
	return td, nil
}

// indexName mirrors id into the per-kind name index, but only when root is
// true: a non-root-visible name must be reachable solely through
// references, never through name lookup (spec.md invariant 3, the
// glossary's "Root-visible" definition), matching the gate view.go applies
// when it rebuilds these same indexes from a parsed buffer.
func (d *Dict) indexName(kind Kind, root bool, name string, id TypeID) {
	if !root || name == "" {
		return
	}
	d.nameIndexFor(kind)[name] = id
}

// AddInteger adds an INTEGER type (spec.md §4.4).
func (d *Dict) AddInteger(root bool, name string, enc Encoding) (TypeID, error) {
	td, err := d.addGeneric(name, KindInteger, root)
	if err != nil {
		return 0, err
	}
	td.encoding = enc
	td.size = uint64(intByteSize(enc.Bits))
	d.indexName(KindInteger, root, name, td.id)
	return td.id, nil
}

// AddFloat adds a FLOAT type.
func (d *Dict) AddFloat(root bool, name string, enc Encoding) (TypeID, error) {
	td, err := d.addGeneric(name, KindFloat, root)
	if err != nil {
		return 0, err
	}
	td.encoding = enc
	td.size = uint64(intByteSize(enc.Bits))
	d.indexName(KindFloat, root, name, td.id)
	return td.id, nil
}

func (d *Dict) checkRef(ref TypeID) error {
	if ref > maxType {
		return d.setErr(NewBadIDError(ref))
	}
	return nil
}

// AddPointer adds a POINTER to ref.
func (d *Dict) AddPointer(root bool, ref TypeID) (TypeID, error) {
	if err := d.checkRef(ref); err != nil {
		return 0, err
	}
	td, err := d.addGeneric("", KindPointer, root)
	if err != nil {
		return 0, err
	}
	td.ref = ref
	return td.id, nil
}

// AddVolatile adds a VOLATILE qualifier of ref.
func (d *Dict) AddVolatile(root bool, ref TypeID) (TypeID, error) {
	return d.addQualifier(KindVolatile, root, ref)
}

// AddConst adds a CONST qualifier of ref.
func (d *Dict) AddConst(root bool, ref TypeID) (TypeID, error) {
	return d.addQualifier(KindConst, root, ref)
}

// AddRestrict adds a RESTRICT qualifier of ref.
func (d *Dict) AddRestrict(root bool, ref TypeID) (TypeID, error) {
	return d.addQualifier(KindRestrict, root, ref)
}

func (d *Dict) addQualifier(kind Kind, root bool, ref TypeID) (TypeID, error) {
	if err := d.checkRef(ref); err != nil {
		return 0, err
	}
	td, err := d.addGeneric("", kind, root)
	if err != nil {
		return 0, err
	}
	td.ref = ref
	return td.id, nil
}

// AddTypedef adds a TYPEDEF named name for ref.
func (d *Dict) AddTypedef(root bool, name string, ref TypeID) (TypeID, error) {
	if err := d.checkRef(ref); err != nil {
		return 0, err
	}
	td, err := d.addGeneric(name, KindTypedef, root)
	if err != nil {
		return 0, err
	}
	td.ref = ref
	d.indexName(KindTypedef, root, name, td.id)
	return td.id, nil
}

// AddArray adds an ARRAY type with the given contents/index/count.
func (d *Dict) AddArray(root bool, info ArrayInfo) (TypeID, error) {
	td, err := d.addGeneric("", KindArray, root)
	if err != nil {
		return 0, err
	}
	td.array = info
	return td.id, nil
}

// AddFunction adds a FUNCTION type. argc must be at most maxVlen-1; a
// variadic function reserves one further virtual slot (spec.md §4.4).
func (d *Dict) AddFunction(root bool, name string, ret TypeID, args []TypeID, variadic bool) (TypeID, error) {
	if len(args) > maxVlen-1 {
		return 0, d.setErr(NewDTFullError(uint32(len(args))))
	}
	td, err := d.addGeneric(name, KindFunction, root)
	if err != nil {
		return 0, err
	}
	argsCopy := append([]TypeID(nil), args...)
	td.fn = FuncInfo{Return: ret, Args: argsCopy, Variadic: variadic}
	d.indexName(KindFunction, root, name, td.id)
	return td.id, nil
}

// addAggregate implements the shared shape of AddStruct/AddUnion: if a
// root-visible forward of the same name and matching referenced-kind
// already exists, upgrade it in place (same id); otherwise allocate fresh.
func (d *Dict) addAggregate(kind Kind, root bool, name string) (TypeID, error) {
	if !d.isReadWrite() {
		return 0, d.setErr(NewReadOnlyError())
	}
	if name != "" {
		if existingID, ok := d.lookupByName(kind, name); ok {
			existing := d.types.get(existingID)
			if existing != nil && existing.kind == KindForward && existing.fwdKind == kind {
				existing.kind = kind
				existing.root = existing.root || root
				d.indexName(kind, existing.root, name, existing.id)
				d.markDirty()
				return existing.id, nil
			}
		}
	}

	td, err := d.addGeneric(name, kind, root)
	if err != nil {
		return 0, err
	}
	td.size = 0
	d.indexName(kind, root, name, td.id)
	return td.id, nil
}

// AddStruct adds (or upgrades a forward into) a STRUCT named name.
func (d *Dict) AddStruct(root bool, name string) (TypeID, error) {
	return d.addAggregate(KindStruct, root, name)
}

// AddUnion adds (or upgrades a forward into) a UNION named name.
func (d *Dict) AddUnion(root bool, name string) (TypeID, error) {
	return d.addAggregate(KindUnion, root, name)
}

// AddEnum adds an ENUM type; its size is the data model's int width.
func (d *Dict) AddEnum(root bool, name string) (TypeID, error) {
	td, err := d.addGeneric(name, KindEnum, root)
	if err != nil {
		return 0, err
	}
	td.size = uint64(d.model.IntSize)
	d.indexName(KindEnum, root, name, td.id)
	return td.id, nil
}

// AddForward adds a FORWARD placeholder for the named STRUCT, UNION, or
// ENUM. A second AddForward with the same name is idempotent and returns
// the existing id, provided the existing forward is root-visible (spec.md
// §4.4).
func (d *Dict) AddForward(root bool, name string, fwdKind Kind) (TypeID, error) {
	if !d.isReadWrite() {
		return 0, d.setErr(NewReadOnlyError())
	}
	if !isForwardTarget(fwdKind) {
		return 0, d.setErr(NewNotSUEError(0, fwdKind))
	}
	if name != "" {
		if existingID, ok := d.lookupByName(fwdKind, name); ok {
			return existingID, nil
		}
	}
	td, err := d.addGeneric(name, KindForward, root)
	if err != nil {
		return 0, err
	}
	td.fwdKind = fwdKind
	d.indexName(fwdKind, root, name, td.id)
	return td.id, nil
}

// AddEnumerator appends a named, valued member to an ENUM.
func (d *Dict) AddEnumerator(enumID TypeID, name string, value int64) error {
	if !d.isReadWrite() {
		return d.setErr(NewReadOnlyError())
	}
	td, err := d.get(enumID)
	if err != nil {
		return d.setErr(err)
	}
	if td.kind != KindEnum {
		return d.setErr(NewNotEnumError(enumID, td.kind))
	}
	for _, m := range td.members {
		if m.Name == name {
			return d.setErr(NewDuplicateError("enumerator", name))
		}
	}
	if len(td.members) >= maxVlen {
		return d.setErr(NewDTFullError(uint32(len(td.members))))
	}

	td.members = append(td.members, Member{Name: name, Value: value})
	d.strGrowth += nameGrowth(name)
	d.markDirty()
	return nil
}

// memberBitWidth returns the bit width to use as a member's "end" for
// natural-offset computation: the encoding's Bits for INTEGER/FLOAT,
// otherwise byte size * 8.
func (d *Dict) memberBitWidth(m Member) (uint64, error) {
	td, err := d.get(m.Type)
	if err != nil {
		return 0, err
	}
	if td.kind == KindInteger || td.kind == KindFloat {
		return uint64(td.encoding.Bits), nil
	}
	size, err := d.typeSize(m.Type)
	if err != nil {
		return 0, err
	}
	return size * 8, nil
}

// NaturalOffset is the add_member_offset sentinel requesting a
// naturally aligned bit offset rather than an explicit one.
const NaturalOffset = int64(-1)

// AddMember appends memberType under name to a STRUCT/UNION, computing
// its bit offset naturally (spec.md §4.4's Natural mode).
func (d *Dict) AddMember(structID TypeID, name string, memberType TypeID) error {
	return d.AddMemberOffset(structID, name, memberType, NaturalOffset)
}

// AddMemberOffset appends memberType under name to a STRUCT/UNION at the
// given bit offset, or at a naturally aligned offset when offset is
// NaturalOffset.
func (d *Dict) AddMemberOffset(structID TypeID, name string, memberType TypeID, offset int64) error {
	if !d.isReadWrite() {
		return d.setErr(NewReadOnlyError())
	}
	td, err := d.get(structID)
	if err != nil {
		return d.setErr(err)
	}
	if td.kind != KindStruct && td.kind != KindUnion {
		return d.setErr(NewNotSOUError(structID, td.kind))
	}
	if name != "" {
		for _, m := range td.members {
			if m.Name == name {
				return d.setErr(NewDuplicateError("member", name))
			}
		}
	}
	if len(td.members) >= maxVlen {
		return d.setErr(NewDTFullError(uint32(len(td.members))))
	}

	memberSize, err := d.typeSize(memberType)
	if err != nil {
		return d.setErr(err)
	}

	var bitOffset uint64
	if td.kind == KindUnion {
		bitOffset = 0
		if memberSize > td.size {
			td.size = memberSize
		}
	} else if offset == NaturalOffset {
		var prevEndBits uint64
		if n := len(td.members); n > 0 {
			prev := td.members[n-1]
			width, err := d.memberBitWidth(prev)
			if err != nil {
				return d.setErr(err)
			}
			prevEndBits = prev.Offset + width
		}
		align, err := d.typeAlign(memberType)
		if err != nil {
			return d.setErr(err)
		}
		if align == 0 {
			align = 1
		}
		byteOff := roundup(prevEndBits, 8) / 8
		byteOff = roundup(byteOff, align)
		bitOffset = byteOff * 8
		if newSize := bitOffset/8 + memberSize; newSize > td.size {
			td.size = newSize
		}
	} else {
		if offset < 0 {
			return d.setErr(errors.New("explicit member offset must not be negative"))
		}
		bitOffset = uint64(offset)
		if newSize := bitOffset/8 + memberSize; newSize > td.size {
			td.size = newSize
		}
	}

	td.members = append(td.members, Member{Name: name, Type: memberType, Offset: bitOffset})
	if name != "" {
		d.strGrowth += nameGrowth(name)
	}
	d.markDirty()
	return nil
}

// AddVariable binds name to typ at the current snapshot.
func (d *Dict) AddVariable(name string, typ TypeID) error {
	if !d.isReadWrite() {
		return d.setErr(NewReadOnlyError())
	}
	if name == "" {
		return d.setErr(errors.New("variable name is mandatory"))
	}
	if d.vars.lookup(name) != nil {
		return d.setErr(NewDuplicateError("variable", name))
	}
	v := &varDef{name: name, typ: typ, born: d.snapshotCount}
	d.vars.insert(v)
	d.strGrowth += nameGrowth(name)
	d.markDirty()
	return nil
}
