/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

// TypeID is a container-local type identifier. 0 is a sentinel and is
// never assigned to a real type.
type TypeID uint32

// Kind discriminates a type record. It occupies the top 5 bits of the
// wire info word (§6.1), so values above 31 are invalid.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInteger
	KindFloat
	KindPointer
	KindArray
	KindFunction
	KindStruct
	KindUnion
	KindEnum
	KindForward
	KindTypedef
	KindVolatile
	KindConst
	KindRestrict
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindForward:
		return "forward"
	case KindTypedef:
		return "typedef"
	case KindVolatile:
		return "volatile"
	case KindConst:
		return "const"
	case KindRestrict:
		return "restrict"
	default:
		return "unknown"
	}
}

// isQualifier reports whether k is one of the reference-only kinds whose
// payload is a single referenced TypeID (pointer, qualifiers, typedef).
func (k Kind) isQualifier() bool {
	switch k {
	case KindPointer, KindVolatile, KindConst, KindRestrict, KindTypedef:
		return true
	default:
		return false
	}
}

func (k Kind) isAggregate() bool {
	return k == KindStruct || k == KindUnion
}

// Member is one entry of a STRUCT/UNION member list (Name, Type, Offset
// populated; Value unused) or an ENUM member list (Name, Value
// populated; Type/Offset unused).
type Member struct {
	Name   string
	Type   TypeID
	Offset uint64
	Value  int64
}

// ArrayInfo is the ARRAY payload: element type, index type, element
// count.
type ArrayInfo struct {
	Contents TypeID
	Index    TypeID
	Count    uint64
}

// FuncInfo is the FUNCTION payload: return type and argument types.
// Variadic marks a variadic function; Args never holds the trailing 0
// sentinel argument that encodes it on the wire.
type FuncInfo struct {
	Return   TypeID
	Args     []TypeID
	Variadic bool
}

// vlen returns the wire vlen for a FUNCTION: argument count plus one if
// variadic.
func (f FuncInfo) vlen() int {
	n := len(f.Args)
	if f.Variadic {
		n++
	}
	return n
}

// typeDef is a dynamic (pending, uncommitted) type record: the mutable
// analogue of a read-only view's parsed type entry.
type typeDef struct {
	id   TypeID
	name string
	kind Kind
	root bool

	size     uint64   // byte size: INTEGER/FLOAT/STRUCT/UNION
	encoding Encoding // INTEGER/FLOAT
	ref      TypeID   // POINTER/VOLATILE/CONST/RESTRICT/TYPEDEF referent
	array    ArrayInfo
	fn       FuncInfo
	members  []Member // STRUCT/UNION members, or ENUM enumerators
	fwdKind  Kind     // FORWARD: the kind being forward-declared

	// bucket chaining for typeStore, keyed by id.
	bucketNext *typeDef
	// insertion-order list linkage.
	prev, next *typeDef
}

func (t *typeDef) vlen() int {
	switch t.kind {
	case KindStruct, KindUnion, KindEnum:
		return len(t.members)
	case KindFunction:
		return t.fn.vlen()
	default:
		return 0
	}
}

// varDef is a dynamic name -> type binding.
type varDef struct {
	name string
	typ  TypeID
	born uint64 // snapshot count at birth, for rollback

	hash       uint32
	bucketNext *varDef
	prev, next *varDef
}
