package svm

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-harness/internal/consts"
	"sol-harness/internal/instruction"
	"sol-harness/internal/txerror"
	"sol-harness/internal/types"
)

// counterProgram 将账户 0 的前 8 字节当作 u64 计数器加一
type counterProgram struct{}

func (counterProgram) Process(ctx *InvokeContext, _ []byte) error {
	if err := ctx.ConsumeUnits(500); err != nil {
		return err
	}
	acc, err := ctx.Account(0)
	if err != nil {
		return err
	}
	if acc.Owner != ctx.ProgramID() {
		return txerror.ErrIncorrectProgramID
	}
	if len(acc.Data) < 8 {
		return txerror.ErrAccountDataTooSmall
	}
	n := binary.LittleEndian.Uint64(acc.Data) + 1
	binary.LittleEndian.PutUint64(acc.Data, n)
	ctx.Log("count=%d", n)
	return nil
}

const (
	opCustomError byte = iota
	opMoveLamports
	opConsumeAll
	opPanic
	opEmitEvent
	opWriteData
	opMintLamport
)

// misbehavingProgram 按数据首字节执行不同操作，用于覆盖运行时校验
var misbehavingProgram = ProcessorFunc(func(ctx *InvokeContext, data []byte) error {
	if len(data) == 0 {
		return txerror.ErrInvalidInstructionData
	}
	switch data[0] {
	case opCustomError:
		ctx.Log("AnchorError occurred. Error Code: InvalidAmount. Error Number: 6000. Error Message: amount must be positive.")
		return txerror.CustomError(6000)
	case opMoveLamports:
		from, err := ctx.Account(0)
		if err != nil {
			return err
		}
		to, err := ctx.Account(1)
		if err != nil {
			return err
		}
		from.Lamports--
		to.Lamports++
		return nil
	case opConsumeAll:
		for {
			if err := ctx.ConsumeUnits(10_000); err != nil {
				return err
			}
		}
	case opPanic:
		var m map[string]int
		m["boom"] = 1
		return nil
	case opEmitEvent:
		ctx.LogData([]byte{1, 2, 3}, []byte("evt"))
		return nil
	case opWriteData:
		acc, err := ctx.Account(0)
		if err != nil {
			return err
		}
		acc.Data = append(acc.Data, 0xff)
		return nil
	case opMintLamport:
		acc, err := ctx.Account(0)
		if err != nil {
			return err
		}
		acc.Lamports++
		return nil
	default:
		return txerror.ErrInvalidInstructionData
	}
})

type programFixture struct {
	ledger    *Ledger
	programID types.Pubkey
	payer     types.Pubkey
	owned     types.Pubkey
	foreign   types.Pubkey
	execute   func(op byte, metas ...instruction.AccountMeta) (logs []string, err error)
}

func newProgramFixture(t *testing.T) *programFixture {
	l := New()
	programID := types.NewUniquePubkey()
	require.NoError(t, l.RegisterProgram(programID, misbehavingProgram))

	payer := newFunded(t, l, tenSol)
	owned := types.NewUniquePubkey()
	l.SetAccount(owned, Account{Lamports: consts.LamportsPerSol, Owner: programID})
	foreign := types.NewUniquePubkey()
	l.SetAccount(foreign, NewSystemAccount(consts.LamportsPerSol))

	f := &programFixture{
		ledger:    l,
		programID: programID,
		payer:     pubkeyOf(payer),
		owned:     owned,
		foreign:   foreign,
	}
	f.execute = func(op byte, metas ...instruction.AccountMeta) ([]string, error) {
		out := execute(t, l, []instruction.Instruction{{ProgramID: programID, Accounts: metas, Data: []byte{op}}}, payer)
		l.AdvanceSlot(1)
		return out.Logs, out.Err
	}
	return f
}

func TestProgramCustomError(t *testing.T) {
	f := newProgramFixture(t)

	logs, err := f.execute(opCustomError)
	require.Error(t, err)
	assert.Equal(t, "Error processing Instruction 0: custom program error: 0x1770", err.Error())

	ixErr := requireTxError(t, err).Instruction
	code, ok := ixErr.CustomError()
	require.True(t, ok)
	assert.Equal(t, txerror.CustomError(6000), code)

	assert.Equal(t, "Program "+f.programID.String()+" invoke [1]", logs[0])
	assert.Equal(t, "Program "+f.programID.String()+" failed: custom program error: 0x1770", logs[len(logs)-1])
	assert.Contains(t, strings.Join(logs, "\n"), "consumed 0 of 200000 compute units")
}

func TestProgramAccountRules(t *testing.T) {
	f := newProgramFixture(t)

	cases := []struct {
		name  string
		op    byte
		metas []instruction.AccountMeta
		want  error
	}{
		{
			name:  "owned to writable",
			op:    opMoveLamports,
			metas: []instruction.AccountMeta{instruction.Writable(f.owned), instruction.Writable(f.foreign)},
		},
		{
			name:  "readonly destination",
			op:    opMoveLamports,
			metas: []instruction.AccountMeta{instruction.Writable(f.owned), instruction.Readonly(f.foreign)},
			want:  txerror.ErrReadonlyLamportChange,
		},
		{
			name:  "spend foreign",
			op:    opMoveLamports,
			metas: []instruction.AccountMeta{instruction.Writable(f.foreign), instruction.Writable(f.owned)},
			want:  txerror.ErrExternalAccountLamportSpend,
		},
		{
			name:  "write foreign data",
			op:    opWriteData,
			metas: []instruction.AccountMeta{instruction.Writable(f.foreign)},
			want:  txerror.ErrExternalAccountDataModified,
		},
		{
			name:  "write readonly data",
			op:    opWriteData,
			metas: []instruction.AccountMeta{instruction.Readonly(f.owned)},
			want:  txerror.ErrReadonlyDataModified,
		},
		{
			name:  "mint lamports",
			op:    opMintLamport,
			metas: []instruction.AccountMeta{instruction.Writable(f.owned)},
			want:  txerror.ErrUnbalancedInstruction,
		},
		{
			name:  "missing account",
			op:    opMoveLamports,
			metas: []instruction.AccountMeta{instruction.Writable(f.owned)},
			want:  txerror.ErrNotEnoughAccountKeys,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.execute(c.op, c.metas...)
			if c.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, c.want), "got %v", err)
		})
	}
}

func TestProgramComputeBudget(t *testing.T) {
	f := newProgramFixture(t)

	logs, err := f.execute(opConsumeAll)
	require.Error(t, err)
	assert.True(t, errors.Is(err, txerror.ErrComputationalBudgetExceeded))
	assert.Contains(t, logs, "Program "+f.programID.String()+" consumed 200000 of 200000 compute units")
}

func TestProgramPanic(t *testing.T) {
	f := newProgramFixture(t)

	logs, err := f.execute(opPanic)
	require.Error(t, err)
	assert.True(t, errors.Is(err, txerror.ErrProgramFailedToComplete))
	assert.Contains(t, strings.Join(logs, "\n"), "Program log: panicked:")
}

func TestProgramLogData(t *testing.T) {
	f := newProgramFixture(t)

	logs, err := f.execute(opEmitEvent)
	require.NoError(t, err)
	assert.Contains(t, logs, "Program data: AQID ZXZ0")
}

func TestProgramFailureRollsBackState(t *testing.T) {
	f := newProgramFixture(t)

	_, err := f.execute(opMoveLamports, instruction.Writable(f.foreign), instruction.Writable(f.owned))
	require.Error(t, err)

	owned, _ := f.ledger.GetBalance(f.owned)
	foreign, _ := f.ledger.GetBalance(f.foreign)
	assert.Equal(t, consts.LamportsPerSol, owned)
	assert.Equal(t, consts.LamportsPerSol, foreign)
}
