/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddTypeImportsIntegerByNameAndEncoding(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcInt, err := src.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)

	dst := NewDict(DataModelLP64)
	dstID, err := dst.AddType(src, srcInt)
	require.NoError(t, err)

	kind, err := dst.TypeKind(dstID)
	require.NoError(t, err)
	require.Equal(t, KindInteger, kind)

	enc, err := dst.TypeEncoding(dstID)
	require.NoError(t, err)
	require.Equal(t, signedInt(32), enc)
}

func TestAddTypeDedupesAgainstExistingRootType(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcInt, err := src.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)

	dst := NewDict(DataModelLP64)
	existing, err := dst.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)

	dstID, err := dst.AddType(src, srcInt)
	require.NoError(t, err)
	require.Equal(t, existing, dstID)
}

func TestAddTypeEncodingConflictRejected(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcInt, err := src.AddInteger(true, "int", signedInt(16))
	require.NoError(t, err)

	dst := NewDict(DataModelLP64)
	_, err = dst.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)

	_, err = dst.AddType(src, srcInt)
	require.Error(t, err)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestAddTypeResolvesForwardAcrossContainers(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcFwd, err := src.AddForward(true, "Node", KindStruct)
	require.NoError(t, err)

	dst := NewDict(DataModelLP64)
	dstStruct, err := dst.AddStruct(true, "Node")
	require.NoError(t, err)

	dstID, err := dst.AddType(src, srcFwd)
	require.NoError(t, err)
	require.Equal(t, dstStruct, dstID)

	kind, err := dst.TypeKind(dstID)
	require.NoError(t, err)
	require.Equal(t, KindStruct, kind)
}

func TestAddTypeUpgradesExistingForwardToStruct(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcInt, err := src.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	srcStruct, err := src.AddStruct(true, "Node")
	require.NoError(t, err)
	require.NoError(t, src.AddMember(srcStruct, "value", srcInt))

	dst := NewDict(DataModelLP64)
	dstFwd, err := dst.AddForward(true, "Node", KindStruct)
	require.NoError(t, err)

	dstID, err := dst.AddType(src, srcStruct)
	require.NoError(t, err)
	require.Equal(t, dstFwd, dstID)

	kind, err := dst.TypeKind(dstID)
	require.NoError(t, err)
	require.Equal(t, KindStruct, kind)

	m, ok := dst.MemberInfo(dstID, "value")
	require.True(t, ok)
	dstIntID, ok := dst.LookupByName(KindInteger, "int")
	require.True(t, ok)
	require.Equal(t, dstIntID, m.Type)
}

func TestAddTypeSelfReferentialStructResolvesOwnID(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcPtr, err := src.AddPointer(false, 0)
	require.NoError(t, err)
	srcNode, err := src.AddStruct(true, "Node")
	require.NoError(t, err)
	// Rewrite the placeholder pointer to point back at the struct
	// itself, matching a linked-list node's "next *Node" member.
	ptrTD := src.types.get(srcPtr)
	ptrTD.ref = srcNode
	require.NoError(t, src.AddMember(srcNode, "next", srcPtr))

	dst := NewDict(DataModelLP64)
	dstID, err := dst.AddType(src, srcNode)
	require.NoError(t, err)

	m, ok := dst.MemberInfo(dstID, "next")
	require.True(t, ok)
	ref, err := dst.TypeReference(m.Type)
	require.NoError(t, err)
	require.Equal(t, dstID, ref)
}

func TestAddTypeIsIdempotent(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcInt, err := src.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	srcStruct, err := src.AddStruct(true, "S")
	require.NoError(t, err)
	require.NoError(t, src.AddMember(srcStruct, "a", srcInt))

	dst := NewDict(DataModelLP64)
	id1, err := dst.AddType(src, srcStruct)
	require.NoError(t, err)
	countAfterFirst := dst.NextID()

	id2, err := dst.AddType(src, srcStruct)
	require.NoError(t, err)

	require.Equal(t, id1, id2)
	require.Equal(t, countAfterFirst, dst.NextID())
}

func TestAddTypeImportsFunctionArguments(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcInt, err := src.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	srcChar, err := src.AddInteger(true, "char", signedInt(8))
	require.NoError(t, err)
	srcFn, err := src.AddFunction(true, "f", srcInt, []TypeID{srcInt, srcChar}, false)
	require.NoError(t, err)

	dst := NewDict(DataModelLP64)
	dstID, err := dst.AddType(src, srcFn)
	require.NoError(t, err)

	kind, err := dst.TypeKind(dstID)
	require.NoError(t, err)
	require.Equal(t, KindFunction, kind)

	dstIntID, ok := dst.LookupByName(KindInteger, "int")
	require.True(t, ok)
	dstCharID, ok := dst.LookupByName(KindInteger, "char")
	require.True(t, ok)

	dstFnTD := dst.types.get(dstID)
	require.Equal(t, []TypeID{dstIntID, dstCharID}, dstFnTD.fn.Args)
}

func TestAddTypeStructMemberMismatchRejected(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcInt, err := src.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	srcStruct, err := src.AddStruct(true, "S")
	require.NoError(t, err)
	require.NoError(t, src.AddMember(srcStruct, "a", srcInt))

	dst := NewDict(DataModelLP64)
	dstLong, err := dst.AddInteger(true, "long", signedInt(64))
	require.NoError(t, err)
	dstStruct, err := dst.AddStruct(true, "S")
	require.NoError(t, err)
	require.NoError(t, dst.AddMember(dstStruct, "b", dstLong))

	_, err = dst.AddType(src, srcStruct)
	require.Error(t, err)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestAddTypeStructMemberMatchReused(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcInt, err := src.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	srcStruct, err := src.AddStruct(true, "S")
	require.NoError(t, err)
	require.NoError(t, src.AddMember(srcStruct, "a", srcInt))

	dst := NewDict(DataModelLP64)
	dstInt, err := dst.AddInteger(true, "int", signedInt(32))
	require.NoError(t, err)
	dstStruct, err := dst.AddStruct(true, "S")
	require.NoError(t, err)
	require.NoError(t, dst.AddMember(dstStruct, "a", dstInt))

	dstID, err := dst.AddType(src, srcStruct)
	require.NoError(t, err)
	require.Equal(t, dstStruct, dstID)
}

func TestAddTypeEnumValueMismatchRejected(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcEnum, err := src.AddEnum(true, "Color")
	require.NoError(t, err)
	require.NoError(t, src.AddEnumerator(srcEnum, "Red", 0))

	dst := NewDict(DataModelLP64)
	dstEnum, err := dst.AddEnum(true, "Color")
	require.NoError(t, err)
	require.NoError(t, dst.AddEnumerator(dstEnum, "Red", 1))

	_, err = dst.AddType(src, srcEnum)
	require.Error(t, err)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestAddTypeImportsEnumMembers(t *testing.T) {
	src := NewDict(DataModelLP64)
	srcEnum, err := src.AddEnum(true, "Color")
	require.NoError(t, err)
	require.NoError(t, src.AddEnumerator(srcEnum, "Red", 0))
	require.NoError(t, src.AddEnumerator(srcEnum, "Blue", 1))

	dst := NewDict(DataModelLP64)
	dstID, err := dst.AddType(src, srcEnum)
	require.NoError(t, err)

	red, ok := dst.MemberInfo(dstID, "Red")
	require.True(t, ok)
	require.Equal(t, int64(0), red.Value)
	blue, ok := dst.MemberInfo(dstID, "Blue")
	require.True(t, ok)
	require.Equal(t, int64(1), blue.Value)
}
