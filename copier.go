/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

// C7: the cross-container copier. AddType imports src_id and everything
// it transitively references from src into dst, deduplicating by
// name+kind(+encoding) and tolerating cycles through structs and unions
// via a two-phase install-then-link shape (spec.md §4.6).
//
// Grounded on the teacher's map.go cycle handling (a child map is
// registered in its parent's storage before its contents are decoded, so
// a self-referential value resolves against an already-registered slab
// id) and typeinfo.go's decodeTypeInfoRefIfNeeded indirection for
// deferred resolution of a reference captured before its target exists.

func isForwardTarget(k Kind) bool {
	return k == KindStruct || k == KindUnion || k == KindEnum
}

// aggregatesCompatible reports whether dstTD is a legitimate reuse
// candidate for srcTD: same size, same member count, and each member
// matching by name, offset, and (structurally) type, mirroring the
// original importer's size-then-membcmp check before it lets a
// same-named STRUCT/UNION stand in for another (ctf-create.c's
// ctf_add_type, membcmp).
func (dst *Dict) aggregatesCompatible(dstTD *typeDef, src *Dict, srcTD *typeDef) bool {
	if dstTD.size != srcTD.size {
		return false
	}
	if len(dstTD.members) != len(srcTD.members) {
		return false
	}
	for i, sm := range srcTD.members {
		dm := dstTD.members[i]
		if dm.Name != sm.Name || dm.Offset != sm.Offset {
			return false
		}
		if !dst.memberTypesEquivalent(src, dm.Type, sm.Type, map[[2]TypeID]bool{}) {
			return false
		}
	}
	return true
}

// enumsCompatible reports whether every enumerator of dstTD and srcTD
// agree on value, checked bidirectionally by requiring equal cardinality
// plus one-directional membership (mirrors ctf-create.c's enumcmp).
func enumsCompatible(dstTD, srcTD *typeDef) bool {
	if len(dstTD.members) != len(srcTD.members) {
		return false
	}
	dstValues := make(map[string]int64, len(dstTD.members))
	for _, m := range dstTD.members {
		dstValues[m.Name] = m.Value
	}
	for _, m := range srcTD.members {
		v, ok := dstValues[m.Name]
		if !ok || v != m.Value {
			return false
		}
	}
	return true
}

// memberTypesEquivalent is a shallow structural equivalence check across
// two containers' type ids: same kind, same encoding for INTEGER/FLOAT,
// recursing through references/arrays, and name equality for named
// aggregate/forward/typedef types (names are this module's identity
// anchor for those kinds throughout the copier). seen guards against
// cycling through self-referential structs.
func (dst *Dict) memberTypesEquivalent(src *Dict, dstID, srcID TypeID, seen map[[2]TypeID]bool) bool {
	key := [2]TypeID{dstID, srcID}
	if seen[key] {
		return true
	}
	seen[key] = true

	dTD := dst.types.get(dstID)
	sTD := src.types.get(srcID)
	if dTD == nil || sTD == nil {
		return false
	}
	if dTD.kind != sTD.kind {
		return false
	}
	switch dTD.kind {
	case KindInteger, KindFloat:
		return dTD.encoding == sTD.encoding
	case KindPointer, KindVolatile, KindConst, KindRestrict, KindTypedef:
		return dst.memberTypesEquivalent(src, dTD.ref, sTD.ref, seen)
	case KindArray:
		return dTD.array.Count == sTD.array.Count &&
			dst.memberTypesEquivalent(src, dTD.array.Contents, sTD.array.Contents, seen)
	case KindStruct, KindUnion, KindEnum, KindForward:
		return dTD.name == sTD.name
	default:
		return true
	}
}

// AddType imports srcID (and its transitive referents) from src into
// dst, returning dst's id for the (possibly pre-existing) equivalent
// type.
func (dst *Dict) AddType(src *Dict, srcID TypeID) (TypeID, error) {
	return dst.importType(src, srcID, map[TypeID]TypeID{})
}

func (dst *Dict) importType(src *Dict, srcID TypeID, inProgress map[TypeID]TypeID) (TypeID, error) {
	if id, ok := inProgress[srcID]; ok {
		return id, nil
	}

	srcTD, err := src.get(srcID)
	if err != nil {
		return 0, err
	}

	// FORWARD records are filed under their referenced kind's index, not
	// KindForward's own (see builder.go's AddForward), so a directly
	// imported forward must probe the same bucket.
	indexKind := srcTD.kind
	if indexKind == KindForward {
		indexKind = srcTD.fwdKind
	}
	idx := dst.nameIndexFor(indexKind)
	var dstTD *typeDef
	if srcTD.name != "" {
		if id, ok := idx[srcTD.name]; ok {
			dstTD = dst.types.get(id)
		}
	}

	if dstTD != nil {
		if dstTD.kind != srcTD.kind {
			if dstTD.kind == KindForward && isForwardTarget(srcTD.kind) {
				return dst.materialize(src, srcTD, srcID, dstTD, inProgress)
			}
			if srcTD.kind == KindForward && isForwardTarget(dstTD.kind) {
				// The destination already has the real definition;
				// importing a mere forward of it is a no-op match.
				return dstTD.id, nil
			}
			return 0, dst.setErr(NewConflictError(srcTD.name, "kind mismatch on import"))
		}
		switch srcTD.kind {
		case KindInteger, KindFloat:
			if dstTD.root {
				if dstTD.encoding != srcTD.encoding {
					return 0, dst.setErr(NewConflictError(srcTD.name, "encoding mismatch on import"))
				}
				return dstTD.id, nil
			}
			// Not root-visible: ignore and fall through to the
			// pending-list search below.
		case KindStruct, KindUnion:
			if !dst.aggregatesCompatible(dstTD, src, srcTD) {
				return 0, dst.setErr(NewConflictError(srcTD.name, "member mismatch on import"))
			}
			return dstTD.id, nil
		case KindEnum:
			if !enumsCompatible(dstTD, srcTD) {
				return 0, dst.setErr(NewConflictError(srcTD.name, "enumerator mismatch on import"))
			}
			return dstTD.id, nil
		default:
			return dstTD.id, nil
		}
	}

	var found *typeDef
	dst.types.eachReverse(func(td *typeDef) bool {
		if rawIndex(td.id) <= rawIndex(dst.oldID) {
			return false // reached the committed region; pending list exhausted
		}
		if srcTD.name == "" || td.name != srcTD.name || td.kind != srcTD.kind {
			return true
		}
		if srcTD.kind == KindInteger || srcTD.kind == KindFloat {
			if td.encoding != srcTD.encoding {
				return true
			}
		}
		found = td
		return false
	})
	if found != nil {
		return found.id, nil
	}

	return dst.materialize(src, srcTD, srcID, nil, inProgress)
}

// materialize constructs srcTD's equivalent in dst once no existing or
// pending match was found, recursing on referents first. existingFwd, if
// non-nil, is a FORWARD record to upgrade in place rather than a fresh
// allocation.
func (dst *Dict) materialize(src *Dict, srcTD *typeDef, srcID TypeID, existingFwd *typeDef, inProgress map[TypeID]TypeID) (TypeID, error) {
	switch srcTD.kind {
	case KindInteger:
		return dst.AddInteger(srcTD.root, srcTD.name, srcTD.encoding)
	case KindFloat:
		return dst.AddFloat(srcTD.root, srcTD.name, srcTD.encoding)
	case KindForward:
		return dst.AddForward(srcTD.root, srcTD.name, srcTD.fwdKind)

	case KindPointer, KindVolatile, KindConst, KindRestrict, KindTypedef:
		ref, err := dst.importType(src, srcTD.ref, inProgress)
		if err != nil {
			return 0, err
		}
		switch srcTD.kind {
		case KindPointer:
			return dst.AddPointer(srcTD.root, ref)
		case KindVolatile:
			return dst.AddVolatile(srcTD.root, ref)
		case KindConst:
			return dst.AddConst(srcTD.root, ref)
		case KindRestrict:
			return dst.AddRestrict(srcTD.root, ref)
		default: // KindTypedef
			return dst.AddTypedef(srcTD.root, srcTD.name, ref)
		}

	case KindArray:
		contents, err := dst.importType(src, srcTD.array.Contents, inProgress)
		if err != nil {
			return 0, err
		}
		index, err := dst.importType(src, srcTD.array.Index, inProgress)
		if err != nil {
			return 0, err
		}
		return dst.AddArray(srcTD.root, ArrayInfo{Contents: contents, Index: index, Count: srcTD.array.Count})

	case KindFunction:
		ret, err := dst.importType(src, srcTD.fn.Return, inProgress)
		if err != nil {
			return 0, err
		}
		// Argument types are imported recursively and argv rebuilt
		// (open question decision, DESIGN.md): the source's own
		// importer drops arguments and reports argc=0, which the
		// design notes flag as very likely a bug rather than
		// intentional behavior to preserve.
		args := make([]TypeID, len(srcTD.fn.Args))
		for i, a := range srcTD.fn.Args {
			aid, err := dst.importType(src, a, inProgress)
			if err != nil {
				return 0, err
			}
			args[i] = aid
		}
		return dst.AddFunction(srcTD.root, srcTD.name, ret, args, srcTD.fn.Variadic)

	case KindStruct, KindUnion:
		var id TypeID
		if existingFwd != nil {
			existingFwd.kind = srcTD.kind
			existingFwd.root = existingFwd.root || srcTD.root
			existingFwd.size = srcTD.size
			dst.markDirty()
			id = existingFwd.id
		} else {
			td, err := dst.addGeneric(srcTD.name, srcTD.kind, srcTD.root)
			if err != nil {
				return 0, err
			}
			td.size = srcTD.size
			dst.indexName(srcTD.kind, srcTD.root, srcTD.name, td.id)
			id = td.id
		}

		// Install before resolving members: a member that refers back
		// to srcID (directly or transitively) resolves against id
		// rather than recursing forever.
		inProgress[srcID] = id

		dstTD := dst.types.get(id)
		dstTD.members = make([]Member, len(srcTD.members))
		for i, m := range srcTD.members {
			dstTD.members[i] = Member{Name: m.Name, Offset: m.Offset}
			dst.strGrowth += nameGrowth(m.Name)
		}
		for i, m := range srcTD.members {
			mType, err := dst.importType(src, m.Type, inProgress)
			if err != nil {
				return 0, err
			}
			dstTD.members[i].Type = mType
		}
		return id, nil

	case KindEnum:
		var id TypeID
		if existingFwd != nil {
			existingFwd.kind = KindEnum
			existingFwd.root = existingFwd.root || srcTD.root
			id = existingFwd.id
		} else {
			td, err := dst.addGeneric(srcTD.name, KindEnum, srcTD.root)
			if err != nil {
				return 0, err
			}
			td.size = srcTD.size
			dst.indexName(KindEnum, srcTD.root, srcTD.name, td.id)
			id = td.id
		}
		dstTD := dst.types.get(id)
		dstTD.members = append([]Member(nil), srcTD.members...)
		for _, m := range srcTD.members {
			dst.strGrowth += nameGrowth(m.Name)
		}
		return id, nil

	default:
		return 0, dst.setErr(NewCorruptError("import: unrecognized source kind"))
	}
}
