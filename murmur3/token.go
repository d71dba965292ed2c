// Author: momentics <momentics@gmail.com>
//
// Token chain encoding: a partition key's encoded column values are
// hashed into a single ring token according to how many values the key
// has, not by hashing a length-prefixed encoding of the whole key.

package murmur3

import "math/rand"

// Chain computes the ring token for a partition key given its encoded
// column values (raw bytes, no length prefixes). An empty chain (no
// partition key bound to the request) returns a random token so the
// request still routes to some replica. A single value is hashed
// directly. Multiple values are joined with a single 0x00 separator
// byte between each pair and hashed once as the concatenation.
func Chain(values [][]byte) int64 {
	switch len(values) {
	case 0:
		return rand.Int63()
	case 1:
		return Token(values[0])
	default:
		total := len(values) - 1
		for _, v := range values {
			total += len(v)
		}
		buf := make([]byte, 0, total)
		for i, v := range values {
			if i > 0 {
				buf = append(buf, 0)
			}
			buf = append(buf, v...)
		}
		return Token(buf)
	}
}
