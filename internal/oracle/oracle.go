package oracle

import (
	"errors"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"sol-harness/internal/instruction"
	"sol-harness/internal/types"
)

var (
	ErrNoSigners     = errors.New("no signers provided")
	ErrNoInstruction = errors.New("no instructions provided")
	ErrMissingSigner = errors.New("missing signer keypair")
)

// Transaction 一次提交：按顺序执行的指令和签名者，第一个签名者支付手续费
type Transaction struct {
	Instructions []instruction.Instruction
	Signers      []sdktypes.Account
}

func (tx Transaction) FeePayer() (types.Pubkey, error) {
	if len(tx.Signers) == 0 {
		return types.Pubkey{}, ErrNoSigners
	}
	return types.PubkeyFromSDK(tx.Signers[0].PublicKey), nil
}

// Validate 提交前的结构检查，不涉及账本状态
func (tx Transaction) Validate() error {
	if len(tx.Signers) == 0 {
		return ErrNoSigners
	}
	if len(tx.Instructions) == 0 {
		return ErrNoInstruction
	}
	return nil
}

// InnerInstruction 执行期间由第 Index 条主指令发起的 CPI
type InnerInstruction struct {
	Index int
	instruction.Instruction
}

// RawOutcome 执行方返回的原始结果；Err 为 nil 表示成功
// InnerInstructions 只有能观察到 CPI 的执行方才会填写
type RawOutcome struct {
	Logs              []string
	Err               error
	ComputeUnits      uint64
	InnerInstructions []InnerInstruction
}

// Oracle 执行一笔交易并返回原始结果
// 返回的 error 只用于执行前的结构性问题（签名者缺失、传输失败等），执行失败放在 RawOutcome.Err
type Oracle interface {
	Execute(tx Transaction) (RawOutcome, error)
}

// Funder 支持直接给账户注资的执行方
type Funder interface {
	Airdrop(pubkey types.Pubkey, lamports uint64) error
}

// AccountReader 支持读取账户状态的执行方
type AccountReader interface {
	GetBalance(pubkey types.Pubkey) (uint64, error)
	GetAccountData(pubkey types.Pubkey) ([]byte, error)
}

// SlotAdvancer 支持推进 slot 的执行方
type SlotAdvancer interface {
	CurrentSlot() uint64
	AdvanceSlot(n uint64)
}

// SlotReader 只能读取 slot 的执行方，例如远程节点
type SlotReader interface {
	Slot() (uint64, error)
}
