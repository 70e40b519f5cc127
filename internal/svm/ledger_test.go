package svm

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/program/system"
	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-harness/internal/consts"
	"sol-harness/internal/instruction"
	"sol-harness/internal/oracle"
	"sol-harness/internal/txerror"
	"sol-harness/internal/types"
)

const tenSol = 10 * consts.LamportsPerSol

func pubkeyOf(kp sdktypes.Account) types.Pubkey {
	return types.PubkeyFromSDK(kp.PublicKey)
}

func newFunded(t *testing.T, l *Ledger, lamports uint64) sdktypes.Account {
	kp := sdktypes.NewAccount()
	require.NoError(t, l.Airdrop(pubkeyOf(kp), lamports))
	return kp
}

func transferIx(from, to types.Pubkey, amount uint64) instruction.Instruction {
	return instruction.FromSDK(system.Transfer(system.TransferParam{
		From:   from.ToSDK(),
		To:     to.ToSDK(),
		Amount: amount,
	}))
}

func execute(t *testing.T, l *Ledger, ixs []instruction.Instruction, signers ...sdktypes.Account) oracle.RawOutcome {
	out, err := l.Execute(oracle.Transaction{Instructions: ixs, Signers: signers})
	require.NoError(t, err)
	return out
}

func requireTxError(t *testing.T, err error) *txerror.TransactionError {
	var txErr *txerror.TransactionError
	require.True(t, errors.As(err, &txErr), "unexpected error type %T", err)
	return txErr
}

func TestTransferSucceeds(t *testing.T) {
	l := New()
	payer := newFunded(t, l, tenSol)
	recipient := types.NewUniquePubkey()

	out := execute(t, l, []instruction.Instruction{transferIx(pubkeyOf(payer), recipient, 1_000_000)}, payer)
	require.NoError(t, out.Err)
	assert.Equal(t, consts.BuiltinProgramComputeUnits, out.ComputeUnits)
	assert.Equal(t, []string{
		"Program 11111111111111111111111111111111 invoke [1]",
		"Program 11111111111111111111111111111111 success",
	}, out.Logs)

	balance, err := l.GetBalance(pubkeyOf(payer))
	require.NoError(t, err)
	assert.Equal(t, tenSol-1_000_000-consts.DefaultLamportsPerSignature, balance)

	balance, err = l.GetBalance(recipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), balance)
}

func TestUnfundedPayer(t *testing.T) {
	l := New()
	payer := sdktypes.NewAccount()

	out := execute(t, l, []instruction.Instruction{transferIx(pubkeyOf(payer), types.NewUniquePubkey(), 1)}, payer)
	assert.Equal(t, "AccountNotFound", out.Err.Error())
	assert.Empty(t, out.Logs)
	assert.Zero(t, out.ComputeUnits)
}

func TestInsufficientFundsForFee(t *testing.T) {
	l := New()
	payer := newFunded(t, l, 1000)

	out := execute(t, l, []instruction.Instruction{transferIx(pubkeyOf(payer), types.NewUniquePubkey(), 1)}, payer)
	assert.Equal(t, txerror.TransactionErrorInsufficientFundsForFee, requireTxError(t, out.Err).Key)

	balance, _ := l.GetBalance(pubkeyOf(payer))
	assert.Equal(t, uint64(1000), balance, "未扣手续费")
}

func TestTransferInsufficientLamportsChargesFee(t *testing.T) {
	l := New()
	payer := newFunded(t, l, consts.LamportsPerSol)

	out := execute(t, l, []instruction.Instruction{
		transferIx(pubkeyOf(payer), types.NewUniquePubkey(), 2*consts.LamportsPerSol),
	}, payer)
	require.Error(t, out.Err)
	assert.Equal(t, "Error processing Instruction 0: custom program error: 0x1", out.Err.Error())
	assert.Contains(t, strings.Join(out.Logs, "\n"), "Transfer: insufficient lamports")

	balance, _ := l.GetBalance(pubkeyOf(payer))
	assert.Equal(t, consts.LamportsPerSol-consts.DefaultLamportsPerSignature, balance)
}

func TestFeeScalesWithSignatures(t *testing.T) {
	l := New(WithLamportsPerSignature(7000))
	payer := newFunded(t, l, tenSol)
	other := newFunded(t, l, tenSol)

	out := execute(t, l, []instruction.Instruction{
		transferIx(pubkeyOf(other), types.NewUniquePubkey(), 1_000_000),
	}, payer, other)
	require.NoError(t, out.Err)

	balance, _ := l.GetBalance(pubkeyOf(payer))
	assert.Equal(t, tenSol-2*7000, balance)
}

func TestBatchIsAtomic(t *testing.T) {
	l := New()
	payer := newFunded(t, l, tenSol)
	a, b := types.NewUniquePubkey(), types.NewUniquePubkey()

	out := execute(t, l, []instruction.Instruction{
		transferIx(pubkeyOf(payer), a, 1_000_000),
		transferIx(pubkeyOf(payer), b, 2_000_000),
	}, payer)
	require.NoError(t, out.Err)
	assert.Equal(t, 2*consts.BuiltinProgramComputeUnits, out.ComputeUnits)

	balA, _ := l.GetBalance(a)
	balB, _ := l.GetBalance(b)
	assert.Equal(t, uint64(1_000_000), balA)
	assert.Equal(t, uint64(2_000_000), balB)

	before, _ := l.GetBalance(pubkeyOf(payer))
	out = execute(t, l, []instruction.Instruction{
		transferIx(pubkeyOf(payer), a, 3_000_000),
		transferIx(pubkeyOf(payer), b, 100*consts.LamportsPerSol),
	}, payer)
	require.Error(t, out.Err)
	ixErr := requireTxError(t, out.Err).Instruction
	require.NotNil(t, ixErr)
	assert.Equal(t, 1, ixErr.Index)

	balA, _ = l.GetBalance(a)
	assert.Equal(t, uint64(1_000_000), balA, "第一条指令的效果应被回滚")
	after, _ := l.GetBalance(pubkeyOf(payer))
	assert.Equal(t, before-consts.DefaultLamportsPerSignature, after)
}

func TestAlreadyProcessed(t *testing.T) {
	l := New()
	payer := newFunded(t, l, tenSol)
	ixs := []instruction.Instruction{transferIx(pubkeyOf(payer), types.NewUniquePubkey(), 1_000_000)}

	require.NoError(t, execute(t, l, ixs, payer).Err)

	out := execute(t, l, ixs, payer)
	assert.Equal(t, "AlreadyProcessed", out.Err.Error())

	l.AdvanceSlot(1)
	assert.NoError(t, execute(t, l, ixs, payer).Err, "新 blockhash 产生新签名")
}

func TestSlotAndBlockhash(t *testing.T) {
	l := New(WithSlot(100))
	assert.Equal(t, uint64(100), l.CurrentSlot())

	hash := l.LatestBlockhash()
	l.AdvanceSlot(5)
	assert.Equal(t, uint64(105), l.CurrentSlot())
	assert.NotEqual(t, hash, l.LatestBlockhash())
}

func TestRentPayingRecipient(t *testing.T) {
	l := New()
	payer := newFunded(t, l, tenSol)
	recipient := types.NewUniquePubkey()

	out := execute(t, l, []instruction.Instruction{transferIx(pubkeyOf(payer), recipient, 1000)}, payer)
	require.Error(t, out.Err)
	assert.Equal(t, "InsufficientFundsForRent { account_index: 1 }", out.Err.Error())

	_, ok := l.GetAccount(recipient)
	assert.False(t, ok)
}

func TestTransferDrainsAccount(t *testing.T) {
	l := New()
	payer := newFunded(t, l, tenSol)
	source := newFunded(t, l, 2_000_000)
	dest := types.NewUniquePubkey()

	out := execute(t, l, []instruction.Instruction{transferIx(pubkeyOf(source), dest, 2_000_000)}, payer, source)
	require.NoError(t, out.Err)

	_, ok := l.GetAccount(pubkeyOf(source))
	assert.False(t, ok, "余额为 0 的账户被回收")
}

func TestSimulateDoesNotCommit(t *testing.T) {
	l := New()
	payer := newFunded(t, l, tenSol)
	recipient := types.NewUniquePubkey()
	tx := oracle.Transaction{
		Instructions: []instruction.Instruction{transferIx(pubkeyOf(payer), recipient, 1_000_000)},
		Signers:      []sdktypes.Account{payer},
	}

	out, err := l.Simulate(tx)
	require.NoError(t, err)
	require.NoError(t, out.Err)
	assert.NotEmpty(t, out.Logs)

	balance, _ := l.GetBalance(pubkeyOf(payer))
	assert.Equal(t, tenSol, balance)
	_, ok := l.GetAccount(recipient)
	assert.False(t, ok)

	out, err = l.Execute(tx)
	require.NoError(t, err)
	assert.NoError(t, out.Err, "模拟不记录签名")
}

func TestStructuralErrors(t *testing.T) {
	l := New()
	payer := newFunded(t, l, tenSol)
	other := sdktypes.NewAccount()

	_, err := l.Execute(oracle.Transaction{
		Instructions: []instruction.Instruction{transferIx(pubkeyOf(payer), types.NewUniquePubkey(), 1)},
	})
	assert.True(t, errors.Is(err, oracle.ErrNoSigners))

	_, err = l.Execute(oracle.Transaction{Signers: []sdktypes.Account{payer}})
	assert.True(t, errors.Is(err, oracle.ErrNoInstruction))

	_, err = l.Execute(oracle.Transaction{
		Instructions: []instruction.Instruction{transferIx(pubkeyOf(other), types.NewUniquePubkey(), 1)},
		Signers:      []sdktypes.Account{payer},
	})
	assert.True(t, errors.Is(err, oracle.ErrMissingSigner))
}

func TestUnknownProgram(t *testing.T) {
	l := New()
	payer := newFunded(t, l, tenSol)

	out := execute(t, l, []instruction.Instruction{{
		ProgramID: types.NewUniquePubkey(),
		Accounts:  []instruction.AccountMeta{instruction.Signer(pubkeyOf(payer))},
	}}, payer)
	assert.Equal(t, "ProgramAccountNotFound", out.Err.Error())

	balance, _ := l.GetBalance(pubkeyOf(payer))
	assert.Equal(t, tenSol, balance)
}

func TestCreateAccountThenProgramWrites(t *testing.T) {
	l := New()
	programID := types.NewUniquePubkey()
	require.NoError(t, l.RegisterProgram(programID, counterProgram{}))

	payer := newFunded(t, l, tenSol)
	counter := sdktypes.NewAccount()
	rent := consts.RentExemptMinimum(8)

	out := execute(t, l, []instruction.Instruction{
		instruction.FromSDK(system.CreateAccount(system.CreateAccountParam{
			From:     payer.PublicKey,
			New:      counter.PublicKey,
			Owner:    programID.ToSDK(),
			Lamports: rent,
			Space:    8,
		})),
		{
			ProgramID: programID,
			Accounts:  []instruction.AccountMeta{instruction.Writable(pubkeyOf(counter))},
		},
	}, payer, counter)
	require.NoError(t, out.Err, strings.Join(out.Logs, "\n"))

	acc, ok := l.GetAccount(pubkeyOf(counter))
	require.True(t, ok)
	assert.Equal(t, programID, acc.Owner)
	assert.Equal(t, rent, acc.Lamports)
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(acc.Data))
	assert.Contains(t, out.Logs, "Program log: count=1")
	assert.Contains(t, out.Logs, "Program "+programID.String()+" consumed 500 of 399850 compute units")

	// 已存在的账户不能再次创建
	l.AdvanceSlot(1)
	out = execute(t, l, []instruction.Instruction{
		instruction.FromSDK(system.CreateAccount(system.CreateAccountParam{
			From:     payer.PublicKey,
			New:      counter.PublicKey,
			Owner:    programID.ToSDK(),
			Lamports: rent,
			Space:    8,
		})),
	}, payer, counter)
	assert.Equal(t, "Error processing Instruction 0: custom program error: 0x0", out.Err.Error())
}

func TestRegisterBuiltinRejected(t *testing.T) {
	l := New()
	err := l.RegisterProgram(consts.SystemProgram, counterProgram{})
	assert.True(t, errors.Is(err, ErrBuiltinProgram))
}
