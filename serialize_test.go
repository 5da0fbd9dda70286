/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateNoOpOnCleanContainer(t *testing.T) {
	d := NewDict(DataModelLP64)
	require.False(t, d.IsDirty())
	require.NoError(t, d.Update())
	require.Nil(t, d.view)
}

func TestUpdateRoundTripsScalarAndAggregateTypes(t *testing.T) {
	d := NewDict(DataModelLP64)
	intID, err := d.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	sID, err := d.AddStruct(true, "S")
	require.NoError(t, err)
	require.NoError(t, d.AddMember(sID, "a", intID))
	require.NoError(t, d.AddMember(sID, "b", intID))
	require.NoError(t, d.AddVariable("origin", sID))

	require.NoError(t, d.Update())
	require.False(t, d.IsDirty())
	require.NotNil(t, d.view)

	kind, err := d.view.typeKind(intID)
	require.NoError(t, err)
	require.Equal(t, KindInteger, kind)

	size, err := d.view.typeSize(sID)
	require.NoError(t, err)
	require.Equal(t, uint64(8), size)

	b, ok := d.view.memberInfo(sID, "b")
	require.True(t, ok)
	require.Equal(t, uint64(32), b.Offset)
	require.Equal(t, intID, b.Type)

	viewIntID, ok := d.view.lookupByName(KindInteger, "int")
	require.True(t, ok)
	require.Equal(t, intID, viewIntID)

	viewSID, ok := d.view.lookupByName(KindStruct, "S")
	require.True(t, ok)
	require.Equal(t, sID, viewSID)

	varID, ok := d.view.lookupVar("origin")
	require.True(t, ok)
	require.Equal(t, sID, varID)
}

func TestUpdateIsIdempotentWhenNotDirty(t *testing.T) {
	d := NewDict(DataModelLP64)
	_, err := d.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	require.NoError(t, d.Update())

	viewBefore := d.view
	require.NoError(t, d.Update())
	require.Same(t, viewBefore, d.view)
}

func TestUpdateOrdersVariablesByNameOnWire(t *testing.T) {
	d := NewDict(DataModelLP64)
	intID, err := d.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	require.NoError(t, d.AddVariable("zebra", intID))
	require.NoError(t, d.AddVariable("apple", intID))
	require.NoError(t, d.AddVariable("mango", intID))

	require.NoError(t, d.Update())

	varBase := headerSize + int(d.view.header.VarOff)
	varEnd := headerSize + int(d.view.header.TypeOff)
	strBase := headerSize + int(d.view.header.StrOff)

	var names []string
	for off := varBase; off+8 <= varEnd; off += 8 {
		nameOff := d.byteOrder.Uint32(d.view.buf[off : off+4])
		start := strBase + int(nameOff)
		end := start
		for d.view.buf[end] != 0 {
			end++
		}
		names = append(names, string(d.view.buf[start:end]))
	}
	require.Equal(t, []string{"apple", "mango", "zebra"}, names)
}

func TestUpdateEmitsLongMemberFormAtThreshold(t *testing.T) {
	d := NewDict(DataModelLP64)
	byteID, err := d.AddInteger(true, "byte", signedInt(8))
	require.NoError(t, err)
	arrID, err := d.AddArray(false, ArrayInfo{Contents: byteID, Count: lstructThresh})
	require.NoError(t, err)
	sID, err := d.AddStruct(true, "Big")
	require.NoError(t, err)
	require.NoError(t, d.AddMember(sID, "blob", arrID))

	require.NoError(t, d.Update())

	m, ok := d.view.memberInfo(sID, "blob")
	require.True(t, ok)
	require.Equal(t, uint64(0), m.Offset)
	size, err := d.view.typeSize(sID)
	require.NoError(t, err)
	require.Equal(t, uint64(lstructThresh), size)
}

func TestUpdateRoundTripsFunctionWithOddArgCountPadding(t *testing.T) {
	d := NewDict(DataModelLP64)
	intID, err := d.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	fID, err := d.AddFunction(true, "f", intID, []TypeID{intID}, false)
	require.NoError(t, err)

	require.NoError(t, d.Update())

	kind, err := d.view.typeKind(fID)
	require.NoError(t, err)
	require.Equal(t, KindFunction, kind)
	vt, ok := d.view.lookupByID(fID)
	require.True(t, ok)
	require.Equal(t, []TypeID{intID}, vt.fn.Args)
	require.False(t, vt.fn.Variadic)
}

func TestUpdateRoundTripsVariadicFunction(t *testing.T) {
	d := NewDict(DataModelLP64)
	intID, err := d.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	fID, err := d.AddFunction(true, "printf", intID, []TypeID{intID}, true)
	require.NoError(t, err)

	require.NoError(t, d.Update())

	vt, ok := d.view.lookupByID(fID)
	require.True(t, ok)
	require.True(t, vt.fn.Variadic)
	require.Equal(t, []TypeID{intID}, vt.fn.Args)
}

func TestUpdateSerializesChildParentName(t *testing.T) {
	parent := NewDict(DataModelLP64)
	child := NewChildDict(parent, "libparent.so")
	_, err := child.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)

	require.NoError(t, child.Update())
	require.True(t, child.view.header.isChild())
	require.Equal(t, "libparent.so", child.view.parentName)
}

func TestUpdateRoundTripsEnum(t *testing.T) {
	d := NewDict(DataModelLP64)
	eID, err := d.AddEnum(true, "Color")
	require.NoError(t, err)
	require.NoError(t, d.AddEnumerator(eID, "Red", 0))
	require.NoError(t, d.AddEnumerator(eID, "Blue", -1))

	require.NoError(t, d.Update())

	red, ok := d.view.memberInfo(eID, "Red")
	require.True(t, ok)
	require.Equal(t, int64(0), red.Value)
	blue, ok := d.view.memberInfo(eID, "Blue")
	require.True(t, ok)
	require.Equal(t, int64(-1), blue.Value)
}

func TestChecksumUnavailableBeforeFirstUpdate(t *testing.T) {
	d := NewDict(DataModelLP64)
	_, ok := d.Checksum()
	require.False(t, ok)
}

func TestChecksumStableAcrossNoOpUpdateChangesOnEdit(t *testing.T) {
	d := NewDict(DataModelLP64)
	_, err := d.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	require.NoError(t, d.Update())

	sum1, ok := d.Checksum()
	require.True(t, ok)

	require.NoError(t, d.Update())
	sum2, ok := d.Checksum()
	require.True(t, ok)
	require.Equal(t, sum1, sum2, "a no-op Update must not change the committed view's checksum")

	_, err = d.AddInteger(true, "short", signedInt(16))
	require.NoError(t, err)
	require.NoError(t, d.Update())
	sum3, ok := d.Checksum()
	require.True(t, ok)
	require.NotEqual(t, sum1, sum3, "committing new content must change the checksum")
}
