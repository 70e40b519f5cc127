package pda

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math"

	"sol-harness/internal/types"
)

const (
	// MaxSeeds 包含 bump 在内的种子数量上限
	MaxSeeds = 16
	// MaxSeedLength 单个种子的最大字节数
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrInvalidSeeds  = errors.New("invalid seeds")
	ErrTooManySeeds  = fmt.Errorf("%w: too many seeds", ErrInvalidSeeds)
	ErrMaxSeedLength = fmt.Errorf("%w: max seed length exceeded", ErrInvalidSeeds)

	// ErrOnCurve 候选地址落在曲线上，不能作为 PDA
	ErrOnCurve = errors.New("derived address is on curve")
	// ErrNoValidBump 255..0 全部候选都在曲线上
	ErrNoValidBump = errors.New("unable to find a viable program address bump seed")
)

// 测试中替换，用于构造无可用 bump 的场景
var onCurve = types.Pubkey.IsOnCurve

// CreateProgramAddress 对给定种子（已含 bump）计算单个候选地址
// 哈希输入顺序：seed1 || ... || seedN || owner || "ProgramDerivedAddress"
func CreateProgramAddress(seeds [][]byte, owner types.Pubkey) (types.Pubkey, error) {
	if err := validateSeeds(seeds, MaxSeeds); err != nil {
		return types.Pubkey{}, err
	}
	candidate := hashCandidate(seeds, nil, owner)
	if onCurve(candidate) {
		return types.Pubkey{}, ErrOnCurve
	}
	return candidate, nil
}

// FindProgramAddress 从 bump=255 向下搜索，返回第一个不在曲线上的地址及其 bump
func FindProgramAddress(seeds [][]byte, owner types.Pubkey) (types.Pubkey, uint8, error) {
	// bump 本身占用一个种子位置
	if err := validateSeeds(seeds, MaxSeeds-1); err != nil {
		return types.Pubkey{}, 0, err
	}

	bump := []byte{math.MaxUint8}
	for {
		candidate := hashCandidate(seeds, bump, owner)
		if !onCurve(candidate) {
			return candidate, bump[0], nil
		}
		if bump[0] == 0 {
			break
		}
		bump[0]--
	}
	return types.Pubkey{}, 0, ErrNoValidBump
}

// FindAddress 与 FindProgramAddress 相同，但丢弃 bump
func FindAddress(seeds [][]byte, owner types.Pubkey) (types.Pubkey, error) {
	addr, _, err := FindProgramAddress(seeds, owner)
	return addr, err
}

// MustFindProgramAddress 仅用于种子固定的场景，失败直接 panic
func MustFindProgramAddress(seeds [][]byte, owner types.Pubkey) (types.Pubkey, uint8) {
	addr, bump, err := FindProgramAddress(seeds, owner)
	if err != nil {
		panic(fmt.Errorf("derive program address under %s: %w", owner, err))
	}
	return addr, bump
}

func validateSeeds(seeds [][]byte, maxSeeds int) error {
	if len(seeds) > maxSeeds {
		return fmt.Errorf("%w: got %d, max %d", ErrTooManySeeds, len(seeds), maxSeeds)
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return fmt.Errorf("%w: seed %d has %d bytes, max %d", ErrMaxSeedLength, i, len(s), MaxSeedLength)
		}
	}
	return nil
}

func hashCandidate(seeds [][]byte, bump []byte, owner types.Pubkey) types.Pubkey {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write(bump)
	h.Write(owner[:])
	h.Write([]byte(pdaMarker))

	var out types.Pubkey
	copy(out[:], h.Sum(nil))
	return out
}
