package consts

import "sol-harness/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	//  Programs
	SystemProgramStr          = "11111111111111111111111111111111"
	TokenProgramStr           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenProgram2022Str       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	AssociatedTokenProgramStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	ComputeBudgetProgramIdStr = "ComputeBudget111111111111111111111111111111"
	NativeLoaderStr           = "NativeLoader1111111111111111111111111111111"
	BPFLoaderUpgradeableStr   = "BPFLoaderUpgradeab1e11111111111111111111111"

	// Sysvars
	SysvarRentStr  = "SysvarRent111111111111111111111111111111111"
	SysvarClockStr = "SysvarC1ock11111111111111111111111111111111"

	// 原生 SOL 包装 mint
	WSOLMintStr = "So11111111111111111111111111111111111111112"
)

var (
	// Programs
	SystemProgram          = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram           = types.PubkeyFromBase58(TokenProgramStr)
	TokenProgram2022       = types.PubkeyFromBase58(TokenProgram2022Str)
	AssociatedTokenProgram = types.PubkeyFromBase58(AssociatedTokenProgramStr)
	ComputeBudgetProgram   = types.PubkeyFromBase58(ComputeBudgetProgramIdStr)
	NativeLoader           = types.PubkeyFromBase58(NativeLoaderStr)
	BPFLoaderUpgradeable   = types.PubkeyFromBase58(BPFLoaderUpgradeableStr)

	SysvarRent  = types.PubkeyFromBase58(SysvarRentStr)
	SysvarClock = types.PubkeyFromBase58(SysvarClockStr)

	WSOLMint = types.PubkeyFromBase58(WSOLMintStr)
)
