package vm

import (
	"encoding/binary"
	"hash/maphash"
)

// seed is fixed for the lifetime of the process so that the compiler
// (hashing string-literal text at compile time) and the VM (hashing
// at lookup time) always agree — the shared hash function
// spec.md's Design Notes require for the LoadString/GetGlobal/
// SetGlobal protocol.
var seed = maphash.MakeSeed()

// HashString is the single hash function shared by the compiler (for
// interning string literals via Chunk.InternString) and the VM (for
// intern-table and globals-map lookups). Locals are resolved by name,
// and GetGlobal/SetGlobal carry the identifier text for the VM to hash.
func HashString(s string) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(s)
	return h.Sum64()
}

// hashValue hashes a Value for constant-pool dedup. The value's kind
// tag is mixed in so that, e.g., Integer(0) and Bool(false) never
// collide.
func hashValue(v Value) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteByte(byte(v.Kind))
	switch v.Kind {
	case KindInteger:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Int))
		h.Write(buf[:])
	case KindBool:
		if v.Bool {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
	case KindString:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v.Hash)
		h.Write(buf[:])
	case KindUnit:
	}
	return h.Sum64()
}
