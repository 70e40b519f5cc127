package pda

import (
	"sol-harness/internal/consts"
	"sol-harness/internal/types"
	"sol-harness/pkg/utils"
)

// Derived 一次推导的结果
type Derived struct {
	Address types.Pubkey
	Bump    uint8
}

// FindProgramAddresses 并发推导多组种子，结果顺序与输入一致；任一失败返回第一个错误
func FindProgramAddresses(seedSets [][][]byte, owner types.Pubkey) ([]Derived, error) {
	type result struct {
		derived Derived
		err     error
	}

	results := utils.ParallelMap(seedSets, consts.CpuCount, func(seeds [][]byte) result {
		addr, bump, err := FindProgramAddress(seeds, owner)
		return result{derived: Derived{Address: addr, Bump: bump}, err: err}
	})

	out := make([]Derived, len(results))
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out[i] = r.derived
	}
	return out, nil
}
