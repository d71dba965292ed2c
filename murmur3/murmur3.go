// Package murmur3 implements the Cassandra-flavored Murmur3 x64_128 hash.
// Author: momentics <momentics@gmail.com>
//
// This is NOT the canonical MurmurHash3_x64_128 reference algorithm: the
// original Cassandra partitioner reads the final (tail, < 16 byte) block
// with the bytes sign-extended through a Java `byte` cast rather than
// zero-extended, and every CQL driver that wants to land a write on the
// same replica as the server picked has to reproduce that quirk exactly.
// Full 16-byte blocks are unaffected, since the bug only shows up in the
// tail-byte switch.
package murmur3

const (
	c1 = int64(-8663945395140668459) // 0x87c37b91114253d5
	c2 = int64(5545529020109919103)  // 0x4cf5ad432745937f
)

func rotl64(x int64, r uint) int64 {
	return (x << r) | int64(uint64(x)>>(64-r))
}

func fmix64(k int64) int64 {
	k ^= int64(uint64(k) >> 33)
	k *= int64(-49064778989728563) // 0xff51afd7ed558ccd
	k ^= int64(uint64(k) >> 33)
	k *= int64(-4265267296055464877) // 0xc4ceb9fe1a85ec53
	k ^= int64(uint64(k) >> 33)
	return k
}

func getBlock(data []byte, offset int) int64 {
	return int64(data[offset]) |
		int64(data[offset+1])<<8 |
		int64(data[offset+2])<<16 |
		int64(data[offset+3])<<24 |
		int64(data[offset+4])<<32 |
		int64(data[offset+5])<<40 |
		int64(data[offset+6])<<48 |
		int64(data[offset+7])<<56
}

// Sum128 computes the 128-bit Murmur3 x64_128 hash of data with seed 0,
// returning both 64-bit words as the reference algorithm defines them.
func Sum128(data []byte) (h1, h2 int64) {
	length := len(data)
	nblocks := length / 16

	for i := 0; i < nblocks; i++ {
		off := i * 16
		k1 := getBlock(data, off)
		k2 := getBlock(data, off+8)

		k1 *= c1
		k1 = rotl64(k1, 31)
		k1 *= c2
		h1 ^= k1

		h1 = rotl64(h1, 27)
		h1 += h2
		h1 = h1*5 + 0x52dce729

		k2 *= c2
		k2 = rotl64(k2, 33)
		k2 *= c1
		h2 ^= k2

		h2 = rotl64(h2, 31)
		h2 += h1
		h2 = h2*5 + 0x38495ab5
	}

	tail := data[nblocks*16:]
	var k1, k2 int64
	switch len(tail) & 15 {
	case 15:
		k2 ^= int64(int8(tail[14])) << 48
		fallthrough
	case 14:
		k2 ^= int64(int8(tail[13])) << 40
		fallthrough
	case 13:
		k2 ^= int64(int8(tail[12])) << 32
		fallthrough
	case 12:
		k2 ^= int64(int8(tail[11])) << 24
		fallthrough
	case 11:
		k2 ^= int64(int8(tail[10])) << 16
		fallthrough
	case 10:
		k2 ^= int64(int8(tail[9])) << 8
		fallthrough
	case 9:
		k2 ^= int64(int8(tail[8]))
		k2 *= c2
		k2 = rotl64(k2, 33)
		k2 *= c1
		h2 ^= k2
		fallthrough
	case 8:
		k1 ^= int64(int8(tail[7])) << 56
		fallthrough
	case 7:
		k1 ^= int64(int8(tail[6])) << 48
		fallthrough
	case 6:
		k1 ^= int64(int8(tail[5])) << 40
		fallthrough
	case 5:
		k1 ^= int64(int8(tail[4])) << 32
		fallthrough
	case 4:
		k1 ^= int64(int8(tail[3])) << 24
		fallthrough
	case 3:
		k1 ^= int64(int8(tail[2])) << 16
		fallthrough
	case 2:
		k1 ^= int64(int8(tail[1])) << 8
		fallthrough
	case 1:
		k1 ^= int64(int8(tail[0]))
		k1 *= c1
		k1 = rotl64(k1, 31)
		k1 *= c2
		h1 ^= k1
	}

	h1 ^= int64(length)
	h2 ^= int64(length)

	h1 += h2
	h2 += h1

	h1 = fmix64(h1)
	h2 = fmix64(h2)

	h1 += h2
	h2 += h1

	return h1, h2
}

// Token hashes data with seed 0 and returns the low 64-bit word, which is
// the value the ring uses as a partition token.
func Token(data []byte) int64 {
	h1, _ := Sum128(data)
	return h1
}
