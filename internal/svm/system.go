package svm

import (
	"sol-harness/internal/consts"
	"sol-harness/internal/layout"
	"sol-harness/internal/txerror"
	"sol-harness/internal/types"
)

// System Program 指令编号（u32 小端）
const (
	SystemInstructionCreateAccount uint32 = iota
	SystemInstructionAssign
	SystemInstructionTransfer
	SystemInstructionCreateAccountWithSeed
	SystemInstructionAdvanceNonceAccount
	SystemInstructionWithdrawNonceAccount
	SystemInstructionInitializeNonceAccount
	SystemInstructionAuthorizeNonceAccount
	SystemInstructionAllocate
)

// System Program 的自定义错误码
const (
	SystemErrorAccountAlreadyInUse        txerror.CustomError = 0
	SystemErrorResultWithNegativeLamports txerror.CustomError = 1
	SystemErrorInvalidProgramID           txerror.CustomError = 2
	SystemErrorInvalidAccountDataLength   txerror.CustomError = 3
)

type systemProgram struct{}

func (systemProgram) Process(ctx *InvokeContext, data []byte) error {
	if err := ctx.ConsumeUnits(consts.BuiltinProgramComputeUnits); err != nil {
		return err
	}

	r := layout.NewReader(data)
	tag := r.ReadU32()
	if r.Err() != nil {
		return txerror.ErrInvalidInstructionData
	}

	switch tag {
	case SystemInstructionCreateAccount:
		lamports, space, owner := r.ReadU64(), r.ReadU64(), r.ReadPubkey()
		if r.Finish() != nil {
			return txerror.ErrInvalidInstructionData
		}
		return createAccount(ctx, lamports, space, owner)
	case SystemInstructionAssign:
		owner := r.ReadPubkey()
		if r.Finish() != nil {
			return txerror.ErrInvalidInstructionData
		}
		return assign(ctx, owner)
	case SystemInstructionTransfer:
		lamports := r.ReadU64()
		if r.Finish() != nil {
			return txerror.ErrInvalidInstructionData
		}
		return transfer(ctx, lamports)
	case SystemInstructionAllocate:
		space := r.ReadU64()
		if r.Finish() != nil {
			return txerror.ErrInvalidInstructionData
		}
		return allocate(ctx, space)
	default:
		return txerror.ErrInvalidInstructionData
	}
}

func twoAccounts(ctx *InvokeContext) (*AccountInfo, *AccountInfo, error) {
	from, err := ctx.Account(0)
	if err != nil {
		return nil, nil, err
	}
	to, err := ctx.Account(1)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func transfer(ctx *InvokeContext, lamports uint64) error {
	from, to, err := twoAccounts(ctx)
	if err != nil {
		return err
	}
	return transferLamports(ctx, from, to, lamports)
}

func transferLamports(ctx *InvokeContext, from, to *AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		ctx.Log("Transfer: `from` account %s must sign", from.Key)
		return txerror.ErrMissingRequiredSignature
	}
	if len(from.Data) != 0 {
		ctx.Log("Transfer: `from` must not carry data")
		return txerror.ErrInvalidArgument
	}
	if lamports > from.Lamports {
		ctx.Log("Transfer: insufficient lamports %d, need %d", from.Lamports, lamports)
		return SystemErrorResultWithNegativeLamports
	}
	if to.Lamports > ^uint64(0)-lamports {
		return txerror.ErrArithmeticOverflow
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

func createAccount(ctx *InvokeContext, lamports, space uint64, owner types.Pubkey) error {
	from, to, err := twoAccounts(ctx)
	if err != nil {
		return err
	}
	if err := allocateAndAssign(ctx, to, space, owner); err != nil {
		return err
	}
	return transferLamports(ctx, from, to, lamports)
}

func allocateAndAssign(ctx *InvokeContext, acc *AccountInfo, space uint64, owner types.Pubkey) error {
	if err := allocateSpace(ctx, acc, space); err != nil {
		return err
	}
	return assignOwner(ctx, acc, owner)
}

func allocateSpace(ctx *InvokeContext, acc *AccountInfo, space uint64) error {
	if !acc.IsSigner {
		ctx.Log("Allocate: 'to' account %s must sign", acc.Key)
		return txerror.ErrMissingRequiredSignature
	}
	if len(acc.Data) != 0 || acc.Owner != consts.SystemProgram || acc.Lamports != 0 {
		ctx.Log("Allocate: account Address { address: %s, base: None } already in use", acc.Key)
		return SystemErrorAccountAlreadyInUse
	}
	if space > consts.MaxPermittedDataLength {
		ctx.Log("Allocate: requested %d, max allowed %d", space, consts.MaxPermittedDataLength)
		return SystemErrorInvalidAccountDataLength
	}
	acc.Data = make([]byte, space)
	return nil
}

func assignOwner(ctx *InvokeContext, acc *AccountInfo, owner types.Pubkey) error {
	if acc.Owner == owner {
		return nil
	}
	if !acc.IsSigner {
		ctx.Log("Assign: account %s must sign", acc.Key)
		return txerror.ErrMissingRequiredSignature
	}
	acc.Owner = owner
	return nil
}

func assign(ctx *InvokeContext, owner types.Pubkey) error {
	acc, err := ctx.Account(0)
	if err != nil {
		return err
	}
	return assignOwner(ctx, acc, owner)
}

func allocate(ctx *InvokeContext, space uint64) error {
	acc, err := ctx.Account(0)
	if err != nil {
		return err
	}
	if !acc.IsSigner {
		ctx.Log("Allocate: 'to' account %s must sign", acc.Key)
		return txerror.ErrMissingRequiredSignature
	}
	if len(acc.Data) != 0 || acc.Owner != consts.SystemProgram {
		ctx.Log("Allocate: account Address { address: %s, base: None } already in use", acc.Key)
		return SystemErrorAccountAlreadyInUse
	}
	if space > consts.MaxPermittedDataLength {
		return SystemErrorInvalidAccountDataLength
	}
	acc.Data = make([]byte, space)
	return nil
}

// computeBudgetProgram 只校验指令编号，不改变状态
type computeBudgetProgram struct{}

func (computeBudgetProgram) Process(ctx *InvokeContext, data []byte) error {
	if err := ctx.ConsumeUnits(consts.BuiltinProgramComputeUnits); err != nil {
		return err
	}
	if len(data) == 0 || data[0] > 4 {
		return txerror.ErrInvalidInstructionData
	}
	return nil
}
