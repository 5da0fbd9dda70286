package ctf

import (
	"encoding/binary"
	"errors"

	"github.com/dchest/siphash"
	"github.com/fxamacker/circlehash"
	"github.com/zeebo/blake3"
)

// nameHasher implements the §6.2 hash_compute(bytes, len) -> u32 contract
// used by C3 (bucketing by type id doesn't need it, but the bucket table
// shape is shared) and C4 (bucketing by variable name). It is seeded once
// per process, mirroring the (k0, k1) seed pair the teacher's
// basicDigesterBuilder carries for its SipHash levels.
type nameHasher struct {
	k0 uint64
	k1 uint64
}

var defaultNameHasher = nameHasher{
	k0: 0x9ae16a3b2f90404f,
	k1: 0xc949d7c7509e6557,
}

// hashCompute folds a seeded 128-bit SipHash digest of name into a single
// u32 bucket key.
func (h nameHasher) hashCompute(name string) uint32 {
	lo, hi := siphash.Hash128(h.k0, h.k1, []byte(name))
	return uint32(lo) ^ uint32(hi)
}

func hashComputeName(name string) uint32 {
	return defaultNameHasher.hashCompute(name)
}

// fingerprint is a content digest of a serialized CTF buffer computed
// from two independently rooted hash families, generalizing the
// teacher's encode-then-re-decode-then-compare verification
// (array_serialization_verify.go, map_verify.go) into a single
// comparable value: the serializer computes it right after emission and
// again after re-parsing the buffer, and refuses to swap in the new view
// on mismatch.
type fingerprint struct {
	blake3 [32]byte
	circle uint64
}

func computeFingerprint(buf []byte) (fingerprint, error) {
	if len(buf) == 0 {
		return fingerprint{}, errors.New("cannot fingerprint an empty buffer")
	}
	fp := fingerprint{
		blake3: blake3.Sum256(buf),
		circle: circlehash.Hash64(buf, 0),
	}
	return fp, nil
}

func (fp fingerprint) equal(other fingerprint) bool {
	return fp.blake3 == other.blake3 && fp.circle == other.circle
}

func (fp fingerprint) String() string {
	var lo uint64
	lo = binary.BigEndian.Uint64(fp.blake3[:8])
	return formatFingerprint(lo, fp.circle)
}

func formatFingerprint(blake3Prefix, circle uint64) string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 0, 33)
	for shift := 60; shift >= 0; shift -= 4 {
		buf = append(buf, hex[(blake3Prefix>>uint(shift))&0xf])
	}
	buf = append(buf, ':')
	for shift := 60; shift >= 0; shift -= 4 {
		buf = append(buf, hex[(circle>>uint(shift))&0xf])
	}
	return string(buf)
}
