package pda

import (
	"sol-harness/internal/consts"
	"sol-harness/internal/types"
)

// FindAssociatedTokenAddress 推导 wallet 在 mint 下的关联代币账户（ATA）
// 种子顺序：wallet, tokenProgram, mint
func FindAssociatedTokenAddress(wallet, mint, tokenProgram types.Pubkey) (types.Pubkey, uint8, error) {
	return FindProgramAddress(
		[][]byte{wallet[:], tokenProgram[:], mint[:]},
		consts.AssociatedTokenProgram,
	)
}
