/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

import (
	"encoding/binary"
	"fmt"
)

// This file is the minimal in-scope stand-in for the external bufopen
// contract (§6.2): it parses a buffer produced by serialize.go and
// exposes the lookup services (type_kind, type_size, type_align,
// type_encoding, type_reference, array_info, member_iter, member_info;
// member_iter also visits enumerators) over the parsed bytes. C5 and C7
// use lookup.go's equivalents over the live store instead. It does only wire-format
// parsing; ELF section wrapping, compression, and parent/child container
// linkage remain out of scope per spec.md §1 and are not implemented
// here. Grounded on storage.go's BasicStorage: a concrete, minimal
// implementation standing in for a pluggable external backend.

const headerSize = 2 + 1 + 1 + 4*8 // magic, version, flags, 8 x u32

const (
	ctfMagic         = uint16(0xc7f1)
	ctfVersion       = uint8(2)
	headerFlagChild  = uint8(1)
)

type ctfHeader struct {
	Magic    uint16
	Version  uint8
	Flags    uint8
	ParName  uint32
	LabelOff uint32
	ObjOff   uint32
	FuncOff  uint32
	VarOff   uint32
	TypeOff  uint32
	StrOff   uint32
	StrLen   uint32
}

func (h ctfHeader) isChild() bool { return h.Flags&headerFlagChild != 0 }

// viewType is a parsed, immutable type record.
type viewType struct {
	id      TypeID
	name    string
	kind    Kind
	root    bool
	size    uint64
	enc     Encoding
	ref     TypeID
	array   ArrayInfo
	fn      FuncInfo
	members []Member
	fwdKind Kind
}

// roView is a fully parsed, read-only CTF container view.
type roView struct {
	buf        []byte
	order      binary.ByteOrder
	model      DataModel
	header     ctfHeader
	types      map[TypeID]*viewType
	vars       map[string]TypeID
	byStruct   map[string]TypeID
	byUnion    map[string]TypeID
	byEnum     map[string]TypeID
	byName     map[string]TypeID // catch-all index for every other kind
	parentName string
	fp         fingerprint
}

// nameIndex selects the per-kind name index a type of kind k is
// discoverable through (§3 invariant 3).
func (v *roView) nameIndex(k Kind) map[string]TypeID {
	switch k {
	case KindStruct:
		return v.byStruct
	case KindUnion:
		return v.byUnion
	case KindEnum:
		return v.byEnum
	default:
		return v.byName
	}
}

func newEmptyView(model DataModel, order binary.ByteOrder) *roView {
	return &roView{
		order:    order,
		model:    model,
		types:    map[TypeID]*viewType{},
		vars:     map[string]TypeID{},
		byStruct: map[string]TypeID{},
		byUnion:  map[string]TypeID{},
		byEnum:   map[string]TypeID{},
		byName:   map[string]TypeID{},
	}
}

// parseView parses a buffer produced by serialize.go (§6.1) into a
// read-only view, building the four per-kind name indexes as it walks
// the type records.
func parseView(buf []byte, model DataModel, order binary.ByteOrder) (*roView, error) {
	if len(buf) < headerSize {
		return nil, NewCorruptError("buffer shorter than header")
	}

	h := ctfHeader{
		Magic:    order.Uint16(buf[0:2]),
		Version:  buf[2],
		Flags:    buf[3],
		ParName:  order.Uint32(buf[4:8]),
		LabelOff: order.Uint32(buf[8:12]),
		ObjOff:   order.Uint32(buf[12:16]),
		FuncOff:  order.Uint32(buf[16:20]),
		VarOff:   order.Uint32(buf[20:24]),
		TypeOff:  order.Uint32(buf[24:28]),
		StrOff:   order.Uint32(buf[28:32]),
		StrLen:   order.Uint32(buf[32:36]),
	}
	if h.Magic != ctfMagic {
		return nil, NewCorruptError(fmt.Sprintf("bad magic %#x", h.Magic))
	}
	if h.Version != ctfVersion {
		return nil, NewCorruptError(fmt.Sprintf("unsupported version %d", h.Version))
	}

	strBase := headerSize + int(h.StrOff)
	strEnd := strBase + int(h.StrLen)
	if strEnd > len(buf) {
		return nil, NewCorruptError("string table extends past buffer")
	}
	strs := buf[strBase:strEnd]

	readStr := func(off uint32) (string, error) {
		if int(off) >= len(strs) {
			return "", NewCorruptError("string offset out of range")
		}
		end := off
		for end < uint32(len(strs)) && strs[end] != 0 {
			end++
		}
		if end >= uint32(len(strs)) {
			return "", NewCorruptError("unterminated string")
		}
		return string(strs[off:end]), nil
	}

	v := newEmptyView(model, order)
	v.buf = buf
	v.header = h
	if h.isChild() {
		name, err := readStr(h.ParName)
		if err != nil {
			return nil, err
		}
		v.parentName = name
	}

	// Variable section.
	varBase := headerSize + int(h.VarOff)
	varEnd := headerSize + int(h.TypeOff)
	if varEnd < varBase || varEnd > len(buf) {
		return nil, NewCorruptError("variable section bounds invalid")
	}
	for off := varBase; off+8 <= varEnd; off += 8 {
		nameOff := order.Uint32(buf[off : off+4])
		typeID := order.Uint32(buf[off+4 : off+8])
		name, err := readStr(nameOff)
		if err != nil {
			return nil, err
		}
		v.vars[name] = TypeID(typeID)
	}

	// Type section.
	typeBase := headerSize + int(h.TypeOff)
	typeEnd := headerSize + int(h.StrOff)
	if typeEnd < typeBase || typeEnd > len(buf) {
		return nil, NewCorruptError("type section bounds invalid")
	}

	pos := typeBase
	nextID := TypeID(1)
	for pos < typeEnd {
		if pos+12 > typeEnd {
			return nil, NewCorruptError("truncated type header")
		}
		nameOff := order.Uint32(buf[pos : pos+4])
		info := order.Uint32(buf[pos+4 : pos+8])
		sizeOrType := order.Uint32(buf[pos+8 : pos+12])
		pos += 12

		kind, root, vlen := unpackInfo(info)

		var size uint64
		isSized := kind == KindInteger || kind == KindFloat || kind == KindArray ||
			kind == KindStruct || kind == KindUnion || kind == KindEnum
		var refOrFwd TypeID

		if isSized && sizeOrType == lsizeSent {
			if pos+8 > typeEnd {
				return nil, NewCorruptError("truncated long size")
			}
			hi := order.Uint32(buf[pos : pos+4])
			lo := order.Uint32(buf[pos+4 : pos+8])
			pos += 8
			size = unpackSize(lsizeSent, hi, lo)
		} else if isSized {
			size = uint64(sizeOrType)
		} else {
			refOrFwd = TypeID(sizeOrType)
		}

		name, err := readStr(nameOff)
		if err != nil {
			return nil, err
		}

		vt := &viewType{id: nextID, name: name, kind: kind, root: root, size: size}

		switch kind {
		case KindInteger, KindFloat:
			if pos+4 > typeEnd {
				return nil, NewCorruptError("truncated encoding word")
			}
			vt.enc = unpackEncoding(order.Uint32(buf[pos : pos+4]))
			pos += 4

		case KindArray:
			if pos+12 > typeEnd {
				return nil, NewCorruptError("truncated array payload")
			}
			vt.array = ArrayInfo{
				Contents: TypeID(order.Uint32(buf[pos : pos+4])),
				Index:    TypeID(order.Uint32(buf[pos+4 : pos+8])),
				Count:    uint64(order.Uint32(buf[pos+8 : pos+12])),
			}
			pos += 12

		case KindFunction:
			vt.fn.Return = refOrFwd
			evenVlen := vlen
			if evenVlen%2 != 0 {
				evenVlen++
			}
			if pos+4*evenVlen > typeEnd {
				return nil, NewCorruptError("truncated function args")
			}
			args := make([]TypeID, 0, vlen)
			for i := 0; i < vlen; i++ {
				id := TypeID(order.Uint32(buf[pos : pos+4]))
				pos += 4
				if i == vlen-1 && id == 0 {
					vt.fn.Variadic = true
					continue
				}
				args = append(args, id)
			}
			pos += 4 * (evenVlen - vlen)
			vt.fn.Args = args

		case KindStruct, KindUnion:
			long := size >= lstructThresh
			members := make([]Member, 0, vlen)
			for i := 0; i < vlen; i++ {
				if long {
					if pos+16 > typeEnd {
						return nil, NewCorruptError("truncated long member")
					}
					mNameOff := order.Uint32(buf[pos : pos+4])
					mType := order.Uint32(buf[pos+4 : pos+8])
					hi := order.Uint32(buf[pos+8 : pos+12])
					lo := order.Uint32(buf[pos+12 : pos+16])
					pos += 16
					mName, err := readStr(mNameOff)
					if err != nil {
						return nil, err
					}
					members = append(members, Member{Name: mName, Type: TypeID(mType), Offset: unpackMemberOffset(hi, lo)})
				} else {
					if pos+12 > typeEnd {
						return nil, NewCorruptError("truncated member")
					}
					mNameOff := order.Uint32(buf[pos : pos+4])
					mType := order.Uint32(buf[pos+4 : pos+8])
					off := order.Uint32(buf[pos+8 : pos+12])
					pos += 12
					mName, err := readStr(mNameOff)
					if err != nil {
						return nil, err
					}
					members = append(members, Member{Name: mName, Type: TypeID(mType), Offset: uint64(off)})
				}
			}
			vt.members = members

		case KindEnum:
			members := make([]Member, 0, vlen)
			for i := 0; i < vlen; i++ {
				if pos+8 > typeEnd {
					return nil, NewCorruptError("truncated enumerator")
				}
				mNameOff := order.Uint32(buf[pos : pos+4])
				val := int32(order.Uint32(buf[pos+4 : pos+8]))
				pos += 8
				mName, err := readStr(mNameOff)
				if err != nil {
					return nil, err
				}
				members = append(members, Member{Name: mName, Value: int64(val)})
			}
			vt.members = members

		case KindForward:
			vt.fwdKind = refOrFwd.asKind()

		case KindPointer, KindVolatile, KindConst, KindRestrict, KindTypedef:
			vt.ref = refOrFwd

		default:
			return nil, NewCorruptError(fmt.Sprintf("unknown kind %d", kind))
		}

		v.types[nextID] = vt
		if root && name != "" {
			v.nameIndex(kind)[name] = nextID
		}
		nextID++
	}

	fp, err := computeFingerprint(buf)
	if err != nil {
		return nil, NewCorruptError(err.Error())
	}
	v.fp = fp

	return v, nil
}

// asKind reinterprets a TypeID-sized slot as a Kind, used only for the
// FORWARD record's referenced-kind field.
func (id TypeID) asKind() Kind { return Kind(id) }

// --- §6.2 lookup services ---

func (v *roView) typeKind(id TypeID) (Kind, error) {
	t, ok := v.types[id]
	if !ok {
		return KindUnknown, NewBadIDError(id)
	}
	return t.kind, nil
}

func (v *roView) typeSize(id TypeID) (uint64, error) {
	t, ok := v.types[id]
	if !ok {
		return 0, NewBadIDError(id)
	}
	switch t.kind {
	case KindInteger, KindFloat:
		return uint64(intByteSize(t.enc.Bits)), nil
	case KindStruct, KindUnion:
		return t.size, nil
	case KindEnum:
		return uint64(v.model.IntSize), nil
	case KindArray:
		elemSize, err := v.typeSize(t.array.Contents)
		if err != nil {
			return 0, err
		}
		return elemSize * t.array.Count, nil
	case KindPointer:
		return uint64(v.model.PtrSize), nil
	case KindTypedef, KindVolatile, KindConst, KindRestrict:
		return v.typeSize(t.ref)
	default:
		return 0, nil
	}
}

// typeAlign returns the natural alignment of id in bytes, preferring the
// integer/float encoding's bit width when present and falling back to
// byte size otherwise (spec.md §9's stated priority, load-bearing for
// bit-field offset computation in add_member_offset).
func (v *roView) typeAlign(id TypeID) (uint64, error) {
	t, ok := v.types[id]
	if !ok {
		return 0, NewBadIDError(id)
	}
	switch t.kind {
	case KindInteger, KindFloat:
		return uint64(intByteSize(t.enc.Bits)), nil
	case KindPointer:
		return uint64(v.model.PtrSize), nil
	case KindTypedef, KindVolatile, KindConst, KindRestrict:
		return v.typeAlign(t.ref)
	case KindArray:
		return v.typeAlign(t.array.Contents)
	case KindStruct, KindUnion:
		var max uint64 = 1
		for _, m := range t.members {
			a, err := v.typeAlign(m.Type)
			if err != nil {
				return 0, err
			}
			if a > max {
				max = a
			}
		}
		return max, nil
	case KindEnum:
		return uint64(v.model.IntSize), nil
	default:
		size, err := v.typeSize(id)
		if err != nil {
			return 0, err
		}
		if size == 0 {
			return 1, nil
		}
		return size, nil
	}
}

func (v *roView) typeEncoding(id TypeID) (Encoding, error) {
	t, ok := v.types[id]
	if !ok {
		return Encoding{}, NewBadIDError(id)
	}
	if t.kind != KindInteger && t.kind != KindFloat {
		return Encoding{}, NewBadIDError(id)
	}
	return t.enc, nil
}

func (v *roView) typeReference(id TypeID) (TypeID, error) {
	t, ok := v.types[id]
	if !ok {
		return 0, NewBadIDError(id)
	}
	if !t.kind.isQualifier() {
		return 0, NewBadIDError(id)
	}
	return t.ref, nil
}

func (v *roView) arrayInfo(id TypeID) (ArrayInfo, error) {
	t, ok := v.types[id]
	if !ok || t.kind != KindArray {
		return ArrayInfo{}, NewBadIDError(id)
	}
	return t.array, nil
}

func (v *roView) memberInfo(id TypeID, name string) (Member, bool) {
	t, ok := v.types[id]
	if !ok {
		return Member{}, false
	}
	for _, m := range t.members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

func (v *roView) memberIter(id TypeID, fn func(Member) bool) {
	t, ok := v.types[id]
	if !ok {
		return
	}
	for _, m := range t.members {
		if !fn(m) {
			return
		}
	}
}

func (v *roView) lookupByID(id TypeID) (*viewType, bool) {
	t, ok := v.types[id]
	return t, ok
}

func (v *roView) lookupByName(kind Kind, name string) (TypeID, bool) {
	id, ok := v.nameIndex(kind)[name]
	return id, ok
}

func (v *roView) lookupVar(name string) (TypeID, bool) {
	id, ok := v.vars[name]
	return id, ok
}

// checksum returns the view's independently rooted circlehash digest, so
// a caller holding a raw buffer can cross-check it against this view
// without recomputing the blake3 half of the fingerprint.
func (v *roView) checksum() uint64 { return v.fp.circle }
