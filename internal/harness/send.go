package harness

import (
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"sol-harness/internal/instruction"
	"sol-harness/internal/oracle"
	"sol-harness/internal/outcome"
)

// Send 提交单条指令，第一个签名者支付手续费
func Send(o oracle.Oracle, ix instruction.Instruction, signers ...sdktypes.Account) (*outcome.Result, error) {
	return SendBatch(o, []instruction.Instruction{ix}, signers...)
}

// SendBatch 多条指令放在同一笔交易中原子执行，整体只有一个结果
func SendBatch(o oracle.Oracle, ixs []instruction.Instruction, signers ...sdktypes.Account) (*outcome.Result, error) {
	if len(signers) == 0 {
		return nil, oracle.ErrNoSigners
	}

	cloned := make([]instruction.Instruction, 0, len(ixs))
	for _, ix := range ixs {
		cloned = append(cloned, ix.Clone())
	}

	raw, err := o.Execute(oracle.Transaction{
		Instructions: cloned,
		Signers:      append([]sdktypes.Account(nil), signers...),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit transaction: %w", err)
	}
	return outcome.New(raw), nil
}
