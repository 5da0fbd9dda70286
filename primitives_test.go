/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpackInfo(t *testing.T) {
	testCases := []struct {
		kind Kind
		root bool
		vlen int
	}{
		{KindStruct, true, 3},
		{KindInteger, false, 0},
		{KindEnum, true, 0xffff},
	}
	for _, tc := range testCases {
		info := packInfo(tc.kind, tc.root, tc.vlen)
		kind, root, vlen := unpackInfo(info)
		require.Equal(t, tc.kind, kind)
		require.Equal(t, tc.root, root)
		require.Equal(t, tc.vlen, vlen)
	}
}

func TestPackUnpackSizeShort(t *testing.T) {
	sf := packSize(4096)
	require.False(t, sf.usesLongSz)
	require.Equal(t, uint64(4096), unpackSize(sf.short, 0, 0))
}

func TestPackUnpackSizeLong(t *testing.T) {
	big := uint64(1) << 40
	sf := packSize(big)
	require.True(t, sf.usesLongSz)
	require.Equal(t, uint32(lsizeSent), sf.short)
	require.Equal(t, big, unpackSize(sf.short, sf.longHi, sf.longLo))
}

func TestPackUnpackEncoding(t *testing.T) {
	enc := Encoding{Format: FormatSigned, Offset: 0, Bits: 32}
	require.Equal(t, enc, unpackEncoding(enc.pack()))
}

func TestPackUnpackMemberOffset(t *testing.T) {
	off := uint64(1) << 33
	hi, lo := packMemberOffset(off)
	require.Equal(t, off, unpackMemberOffset(hi, lo))
}

func TestIntByteSizeBoundaries(t *testing.T) {
	testCases := []struct {
		bits uint16
		want uint32
	}{
		{1, 1},
		{8, 1},
		{9, 2},
		{16, 2},
		{33, 8},
		{64, 8},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, intByteSize(tc.bits), "bits=%d", tc.bits)
	}
}

func TestRoundup(t *testing.T) {
	require.Equal(t, uint64(8), roundup(5, 8))
	require.Equal(t, uint64(8), roundup(8, 8))
	require.Equal(t, uint64(0), roundup(0, 8))
}

func TestClp2(t *testing.T) {
	require.Equal(t, uint64(0), clp2(0))
	require.Equal(t, uint64(1), clp2(1))
	require.Equal(t, uint64(4), clp2(3))
	require.Equal(t, uint64(8), clp2(8))
}
