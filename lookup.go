/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

// This file implements the §6.2 lookup services directly against the
// live dynamic type store (C3). Because C3 retains every type ever
// added for the container's lifetime — Update (C8) never clears it, only
// Rollback (C6) prunes it — these services see both previously
// committed and still-uncommitted types without needing to round-trip
// through the serialized buffer. That is what lets spec.md's own worked
// example (§8 scenario 3: add_forward then add_struct with no Update in
// between) resolve the forward by name before any read-only view exists.
// view.go's roView re-implements the same services over parsed bytes,
// purely to validate that Update (C8) serialized the live state
// correctly (the R1 round-trip law) — its lookup services are not
// consulted internally; only Dict.Checksum reads the view's digest.

func (d *Dict) get(id TypeID) (*typeDef, error) {
	td := d.types.get(id)
	if td == nil {
		return nil, NewBadIDError(id)
	}
	return td, nil
}

func (d *Dict) typeKind(id TypeID) (Kind, error) {
	td, err := d.get(id)
	if err != nil {
		return KindUnknown, err
	}
	return td.kind, nil
}

func (d *Dict) typeSize(id TypeID) (uint64, error) {
	td, err := d.get(id)
	if err != nil {
		return 0, err
	}
	switch td.kind {
	case KindInteger, KindFloat:
		return uint64(intByteSize(td.encoding.Bits)), nil
	case KindStruct, KindUnion:
		return td.size, nil
	case KindEnum:
		return uint64(d.model.IntSize), nil
	case KindArray:
		elemSize, err := d.typeSize(td.array.Contents)
		if err != nil {
			return 0, err
		}
		return elemSize * td.array.Count, nil
	case KindPointer:
		return uint64(d.model.PtrSize), nil
	case KindTypedef, KindVolatile, KindConst, KindRestrict:
		return d.typeSize(td.ref)
	default:
		return 0, nil
	}
}

// typeAlign returns the natural alignment of id, preferring the
// integer/float encoding's bit width and falling back to byte size
// (spec.md §9's stated priority — load-bearing for bit-field offsets).
func (d *Dict) typeAlign(id TypeID) (uint64, error) {
	td, err := d.get(id)
	if err != nil {
		return 0, err
	}
	switch td.kind {
	case KindInteger, KindFloat:
		return uint64(intByteSize(td.encoding.Bits)), nil
	case KindPointer:
		return uint64(d.model.PtrSize), nil
	case KindTypedef, KindVolatile, KindConst, KindRestrict:
		return d.typeAlign(td.ref)
	case KindArray:
		return d.typeAlign(td.array.Contents)
	case KindStruct, KindUnion:
		var max uint64 = 1
		for _, m := range td.members {
			a, err := d.typeAlign(m.Type)
			if err != nil {
				return 0, err
			}
			if a > max {
				max = a
			}
		}
		return max, nil
	case KindEnum:
		return uint64(d.model.IntSize), nil
	default:
		size, err := d.typeSize(id)
		if err != nil {
			return 0, err
		}
		if size == 0 {
			return 1, nil
		}
		return size, nil
	}
}

func (d *Dict) typeEncoding(id TypeID) (Encoding, error) {
	td, err := d.get(id)
	if err != nil {
		return Encoding{}, err
	}
	if td.kind != KindInteger && td.kind != KindFloat {
		return Encoding{}, NewBadIDError(id)
	}
	return td.encoding, nil
}

func (d *Dict) typeReference(id TypeID) (TypeID, error) {
	td, err := d.get(id)
	if err != nil {
		return 0, err
	}
	if !td.kind.isQualifier() {
		return 0, NewBadIDError(id)
	}
	return td.ref, nil
}

func (d *Dict) arrayInfo(id TypeID) (ArrayInfo, error) {
	td, err := d.get(id)
	if err != nil {
		return ArrayInfo{}, err
	}
	if td.kind != KindArray {
		return ArrayInfo{}, NewBadIDError(id)
	}
	return td.array, nil
}

func (d *Dict) memberInfo(id TypeID, name string) (Member, bool) {
	td := d.types.get(id)
	if td == nil {
		return Member{}, false
	}
	for _, m := range td.members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

func (d *Dict) memberIter(id TypeID, fn func(Member) bool) {
	td := d.types.get(id)
	if td == nil {
		return
	}
	for _, m := range td.members {
		if !fn(m) {
			return
		}
	}
}

// nameIndexFor returns the per-kind name index map a type of kind k is
// mirrored into (§3 invariant 3): dedicated indexes for STRUCT, UNION,
// ENUM, a catch-all for everything else.
func (d *Dict) nameIndexFor(k Kind) map[string]TypeID {
	switch k {
	case KindStruct:
		return d.byStruct
	case KindUnion:
		return d.byUnion
	case KindEnum:
		return d.byEnum
	default:
		return d.byName
	}
}

func (d *Dict) lookupByName(kind Kind, name string) (TypeID, bool) {
	id, ok := d.nameIndexFor(kind)[name]
	return id, ok
}
