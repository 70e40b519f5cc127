package types

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// Hash 用于 blockhash
type Hash [32]byte

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) Equals(other Hash) bool {
	return h == other
}

func HashFromBase58(s string) (Hash, error) {
	var h Hash
	data, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("failed to decode base58 hash %q: %w", s, err)
	}
	if len(data) != 32 {
		return h, fmt.Errorf("invalid hash length: got %d, want 32", len(data))
	}
	copy(h[:], data)
	return h, nil
}

// NextHash 由上一个 hash 推导下一个，模拟账本按 slot 轮换 blockhash
func NextHash(prev Hash, slot uint64) Hash {
	buf := make([]byte, 0, 40)
	buf = append(buf, prev[:]...)
	buf = append(buf,
		byte(slot), byte(slot>>8), byte(slot>>16), byte(slot>>24),
		byte(slot>>32), byte(slot>>40), byte(slot>>48), byte(slot>>56))
	return sha256.Sum256(buf)
}
