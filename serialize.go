/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// C8: the serializer. Update freezes the dynamic state (C3, C4) into an
// immutable buffer per §6.1's layout, parses it straight back with
// view.go's bufopen equivalent, and swaps it in as the container's
// read-only view. Grounded on encode.go's two-pass size-then-emit shape
// and array_serialization_verify.go's encode-then-redecode-then-compare
// idea, adapted here into a always-on internal consistency check rather
// than a test-only helper.

// isSizedKind reports whether a type's header carries a byte size in its
// third word (short or long form) rather than a bare type-id reference.
func isSizedKind(k Kind) bool {
	switch k {
	case KindInteger, KindFloat, KindArray, KindStruct, KindUnion, KindEnum:
		return true
	default:
		return false
	}
}

// wireLen returns the byte length of td's type-record header and payload
// as Update would emit them.
func (d *Dict) wireLen(td *typeDef) (int, error) {
	headerLen := 12
	if isSizedKind(td.kind) {
		size, err := d.typeSize(td.id)
		if err != nil {
			return 0, err
		}
		if packSize(size).usesLongSz {
			headerLen += 8
		}
	}

	vlen := td.vlen()
	var payload int
	switch td.kind {
	case KindInteger, KindFloat:
		payload = 4
	case KindArray:
		payload = 12
	case KindFunction:
		evenVlen := vlen
		if evenVlen%2 != 0 {
			evenVlen++
		}
		payload = 4 * evenVlen
	case KindStruct, KindUnion:
		size, err := d.typeSize(td.id)
		if err != nil {
			return 0, err
		}
		memberLen := 12
		if size >= lstructThresh {
			memberLen = 16
		}
		payload = vlen * memberLen
	case KindEnum:
		payload = vlen * 8
	}
	return headerLen + payload, nil
}

// Update freezes the current dynamic state into a fresh read-only view,
// replacing d's interior view without changing the handle the caller
// holds (spec.md §4.7, §9's handle-preservation note). It is a no-op
// when the container is not dirty.
func (d *Dict) Update() error {
	if !d.isDirty() {
		return nil
	}

	// Pass 1: total type-section size.
	var typeSize int
	var passErr error
	d.types.each(func(td *typeDef) bool {
		n, err := d.wireLen(td)
		if err != nil {
			passErr = err
			return false
		}
		typeSize += n
		return true
	})
	if passErr != nil {
		return d.setErr(passErr)
	}

	strs := newStringTable()

	var header ctfHeader
	header.Magic = ctfMagic
	header.Version = ctfVersion
	if d.isChild() {
		header.Flags |= headerFlagChild
		header.ParName = strs.append(d.parentName)
	}

	// Pass 2a: variable entries, in list order first (so string offsets
	// are assigned deterministically), then sorted by name for emission.
	type wireVarent struct {
		nameOff uint32
		typeID  uint32
		name    string
	}
	varents := make([]wireVarent, 0, d.vars.len())
	d.vars.each(func(v *varDef) bool {
		off := strs.append(v.name)
		varents = append(varents, wireVarent{nameOff: off, typeID: uint32(v.typ), name: v.name})
		return true
	})
	sort.Slice(varents, func(i, j int) bool { return varents[i].name < varents[j].name })

	var varBuf bytes.Buffer
	for _, ve := range varents {
		writeU32(&varBuf, d.byteOrder, ve.nameOff)
		writeU32(&varBuf, d.byteOrder, ve.typeID)
	}

	// Pass 2b: type records, in list (insertion/id) order.
	var typeBuf bytes.Buffer
	d.types.each(func(td *typeDef) bool {
		if err := d.emitType(&typeBuf, strs, td); err != nil {
			passErr = err
			return false
		}
		return true
	})
	if passErr != nil {
		return d.setErr(passErr)
	}
	if typeBuf.Len() != typeSize {
		return d.setErr(NewCorruptError("emitted type section length does not match pass-1 estimate"))
	}

	header.VarOff = 0
	header.TypeOff = uint32(varBuf.Len())
	header.StrOff = header.TypeOff + uint32(typeBuf.Len())
	header.StrLen = uint32(strs.len())

	var out bytes.Buffer
	out.Grow(headerSize + varBuf.Len() + typeBuf.Len() + strs.len())
	writeHeader(&out, d.byteOrder, header)
	out.Write(varBuf.Bytes())
	out.Write(typeBuf.Bytes())
	out.Write(strs.bytes())

	preFp, err := computeFingerprint(out.Bytes())
	if err != nil {
		return d.setErr(NewCorruptError(err.Error()))
	}

	newView, err := parseView(out.Bytes(), d.model, d.byteOrder)
	if err != nil {
		// DIRTY stays set on opener failure (§7).
		return d.setErr(err)
	}
	if !preFp.equal(newView.fp) {
		return d.setErr(NewCorruptError("fingerprint mismatch between emission and re-parse"))
	}

	d.view = newView
	d.oldID = d.nextID - 1
	d.lastCommittedSnapshot = d.snapshotCount
	d.snapshotCount++
	d.strGrowth = 0
	d.clearDirty()
	return nil
}

func writeHeader(buf *bytes.Buffer, order binary.ByteOrder, h ctfHeader) {
	writeU16(buf, order, h.Magic)
	buf.WriteByte(h.Version)
	buf.WriteByte(h.Flags)
	writeU32(buf, order, h.ParName)
	writeU32(buf, order, h.LabelOff)
	writeU32(buf, order, h.ObjOff)
	writeU32(buf, order, h.FuncOff)
	writeU32(buf, order, h.VarOff)
	writeU32(buf, order, h.TypeOff)
	writeU32(buf, order, h.StrOff)
	writeU32(buf, order, h.StrLen)
}

func writeU16(buf *bytes.Buffer, order binary.ByteOrder, v uint16) {
	var b [2]byte
	order.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var b [4]byte
	order.PutUint32(b[:], v)
	buf.Write(b[:])
}

// emitType writes td's header and payload to buf, appending any names it
// carries to strs.
func (d *Dict) emitType(buf *bytes.Buffer, strs *stringTable, td *typeDef) error {
	order := d.byteOrder
	nameOff := strs.append(td.name)
	info := packInfo(td.kind, td.root, td.vlen())

	var sf sizeFields
	var refOrFwd uint32
	if isSizedKind(td.kind) {
		size, err := d.typeSize(td.id)
		if err != nil {
			return err
		}
		sf = packSize(size)
	} else {
		switch td.kind {
		case KindPointer, KindVolatile, KindConst, KindRestrict, KindTypedef:
			refOrFwd = uint32(td.ref)
		case KindFunction:
			refOrFwd = uint32(td.fn.Return)
		case KindForward:
			refOrFwd = uint32(td.fwdKind)
		}
	}

	writeU32(buf, order, nameOff)
	writeU32(buf, order, info)
	if isSizedKind(td.kind) {
		writeU32(buf, order, sf.short)
		if sf.usesLongSz {
			writeU32(buf, order, sf.longHi)
			writeU32(buf, order, sf.longLo)
		}
	} else {
		writeU32(buf, order, refOrFwd)
	}

	switch td.kind {
	case KindInteger, KindFloat:
		writeU32(buf, order, td.encoding.pack())

	case KindArray:
		writeU32(buf, order, uint32(td.array.Contents))
		writeU32(buf, order, uint32(td.array.Index))
		writeU32(buf, order, uint32(td.array.Count))

	case KindFunction:
		vlen := td.vlen()
		for _, a := range td.fn.Args {
			writeU32(buf, order, uint32(a))
		}
		if td.fn.Variadic {
			writeU32(buf, order, 0)
		}
		if vlen%2 != 0 {
			writeU32(buf, order, 0)
		}

	case KindStruct, KindUnion:
		size, err := d.typeSize(td.id)
		if err != nil {
			return err
		}
		long := size >= lstructThresh
		for _, m := range td.members {
			mNameOff := strs.append(m.Name)
			writeU32(buf, order, mNameOff)
			writeU32(buf, order, uint32(m.Type))
			if long {
				hi, lo := packMemberOffset(m.Offset)
				writeU32(buf, order, hi)
				writeU32(buf, order, lo)
			} else {
				writeU32(buf, order, uint32(m.Offset))
			}
		}

	case KindEnum:
		for _, m := range td.members {
			mNameOff := strs.append(m.Name)
			writeU32(buf, order, mNameOff)
			writeU32(buf, order, uint32(int32(m.Value)))
		}
	}

	return nil
}
