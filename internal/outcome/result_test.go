package outcome

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-harness/internal/oracle"
)

type mockT struct {
	failed   bool
	messages []string
}

func (m *mockT) Errorf(format string, args ...interface{}) {
	m.messages = append(m.messages, fmt.Sprintf(format, args...))
}

func (m *mockT) FailNow() {
	m.failed = true
}

func (m *mockT) output() string {
	return strings.Join(m.messages, "\n")
}

const testProgram = "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS"

var transferLogs = []string{
	"Program 11111111111111111111111111111111 invoke [1]",
	"Program 11111111111111111111111111111111 success",
}

func successResult() *Result {
	return New(oracle.RawOutcome{Logs: transferLogs, ComputeUnits: 150})
}

func failedResult(msg string, logs ...string) *Result {
	return New(oracle.RawOutcome{Logs: logs, Err: errors.New(msg), ComputeUnits: 1200})
}

func TestResultQueries(t *testing.T) {
	r := successResult()
	assert.True(t, r.IsSuccess())
	assert.Empty(t, r.ErrorMessage())
	assert.NoError(t, r.Err())
	assert.Equal(t, uint64(150), r.ComputeUnits())
	assert.Equal(t, transferLogs, r.Logs())

	line, ok := r.FindLog("invoke")
	assert.True(t, ok)
	assert.Equal(t, transferLogs[0], line, "应返回第一条匹配")
	assert.True(t, r.HasLog("success"))

	line, ok = r.FindLog("missing")
	assert.False(t, ok)
	assert.Empty(t, line)
	assert.False(t, r.HasLog("missing"))

	// 返回的是副本
	logs := r.Logs()
	logs[0] = "changed"
	assert.Equal(t, transferLogs[0], r.Logs()[0])
}

func TestNewCopiesLogs(t *testing.T) {
	logs := []string{"a", "b"}
	r := New(oracle.RawOutcome{Logs: logs})
	logs[0] = "x"
	assert.Equal(t, "a", r.Logs()[0])

	empty := New(oracle.RawOutcome{})
	assert.Empty(t, empty.Logs())
	assert.Zero(t, empty.ComputeUnits())
	assert.True(t, empty.IsSuccess())
}

func TestAssertSuccess(t *testing.T) {
	mt := &mockT{}
	successResult().AssertSuccess(mt).AssertSuccess(mt)
	assert.False(t, mt.failed, "成功结果重复断言不应失败")

	mt = &mockT{}
	failedResult("AccountNotFound", "Program log: before").AssertSuccess(mt)
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "Transaction failed: AccountNotFound")
	assert.Contains(t, mt.output(), "Program log: before", "失败消息应包含日志")
}

func TestAssertFailure(t *testing.T) {
	mt := &mockT{}
	successResult().AssertFailure(mt)
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "Expected transaction to fail, but it succeeded.")
	assert.Contains(t, mt.output(), transferLogs[1])

	mt = &mockT{}
	failedResult("boom").AssertFailure(mt)
	assert.False(t, mt.failed)
}

func TestAssertError(t *testing.T) {
	r := failedResult("Error processing Instruction 0: custom program error: 0x1770",
		"Program "+testProgram+" failed: custom program error: 0x1770")

	mt := &mockT{}
	r.AssertError(mt, "0x1770")
	assert.False(t, mt.failed)

	mt = &mockT{}
	r.AssertError(mt, "AccountNotFound")
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "Expected substring: AccountNotFound")
	assert.Contains(t, mt.output(), "Actual error: Error processing Instruction 0: custom program error: 0x1770")
	assert.Contains(t, mt.output(), "failed: custom program error: 0x1770")

	mt = &mockT{}
	successResult().AssertError(mt, "anything")
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "Expected transaction to fail with error containing 'anything', but it succeeded.")
}

func TestAssertErrorCode(t *testing.T) {
	assert.Equal(t, "custom program error: 0x1770", CustomErrorText(6000))
	assert.Equal(t, "custom program error: 0x0", CustomErrorText(0))

	r := failedResult("Error processing Instruction 0: custom program error: 0x1770")

	mt := &mockT{}
	r.AssertErrorCode(mt, 6000)
	assert.False(t, mt.failed)

	mt = &mockT{}
	r.AssertErrorCode(mt, 6001)
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "Expected substring: custom program error: 0x1771")
	assert.Contains(t, mt.output(), "Actual error: Error processing Instruction 0: custom program error: 0x1770")

	// 0x17、0x1 都是 0x1770 的前缀，不能算匹配
	for _, code := range []uint32{0x17, 0x177, 1} {
		mt = &mockT{}
		r.AssertErrorCode(mt, code)
		assert.True(t, mt.failed, "code %#x", code)
	}

	mt = &mockT{}
	successResult().AssertErrorCode(mt, 6000)
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "but it succeeded")
}

func TestAssertAnchorAndLogError(t *testing.T) {
	r := failedResult("Error processing Instruction 0: custom program error: 0x1771",
		"Program "+testProgram+" invoke [1]",
		"Program log: Instruction: Withdraw",
		"Program log: AnchorError thrown in programs/vault/src/lib.rs:42. Error Code: InsufficientBalance. Error Number: 6001. Error Message: Insufficient balance.",
		"Program "+testProgram+" failed: custom program error: 0x1771",
	)

	mt := &mockT{}
	r.AssertAnchorError(mt, "InsufficientBalance").AssertLogError(mt, "Insufficient balance")
	assert.False(t, mt.failed)

	mt = &mockT{}
	r.AssertAnchorError(mt, "Unauthorized")
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "Expected Anchor error 'Unauthorized' not found")

	mt = &mockT{}
	successResult().AssertAnchorError(mt, "InsufficientBalance")
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "Expected transaction to fail")

	mt = &mockT{}
	r.AssertLogError(mt, "not there")
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "Expected error message 'not there' not found in logs.")

	ae, ok := r.AnchorError()
	require.True(t, ok)
	assert.Equal(t, AnchorError{Code: "InsufficientBalance", Number: 6001, Message: "Insufficient balance"}, ae)
}

func TestAnchorErrorCausedByAccount(t *testing.T) {
	r := failedResult("Error processing Instruction 0: custom program error: 0x7d6",
		"Program log: AnchorError caused by account: vault. Error Code: ConstraintSeeds. Error Number: 2006. Error Message: A seeds constraint was violated.",
	)
	ae, ok := r.AnchorError()
	require.True(t, ok)
	assert.Equal(t, "ConstraintSeeds", ae.Code)
	assert.Equal(t, uint32(2006), ae.Number)
	assert.Equal(t, "vault", ae.Account)
	assert.Equal(t, "A seeds constraint was violated", ae.Message)

	_, ok = successResult().AnchorError()
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		r    *Result
		kind ErrorKind
		code uint32
	}{
		{name: "success", r: successResult(), kind: ErrorKindNone},
		{name: "account not found", r: failedResult("AccountNotFound"), kind: ErrorKindAccountNotFound},
		{name: "account not found display", r: failedResult(accountNotFoundMessage + "."), kind: ErrorKindAccountNotFound},
		{name: "fee", r: failedResult("InsufficientFundsForFee"), kind: ErrorKindInsufficientFunds},
		{
			name: "system transfer",
			r: failedResult("Error processing Instruction 0: custom program error: 0x1",
				"Transfer: insufficient lamports 10, need 1000000"),
			kind: ErrorKindInsufficientFunds,
			code: 1,
		},
		{name: "custom hex", r: failedResult("Error processing Instruction 1: custom program error: 0x1770"), kind: ErrorKindCustom, code: 6000},
		{name: "custom debug", r: failedResult("InstructionError(0, Custom(42))"), kind: ErrorKindCustom, code: 42},
		{name: "opaque", r: failedResult("Error processing Instruction 0: invalid instruction data"), kind: ErrorKindOpaque},
		{name: "missing program", r: failedResult("ProgramAccountNotFound"), kind: ErrorKindOpaque},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.r.Classify()
			assert.Equal(t, c.kind, got.Kind)
			assert.Equal(t, c.code, got.Code)
			assert.Equal(t, c.r.ErrorMessage(), got.Message)

			mt := &mockT{}
			c.r.AssertErrorKind(mt, c.kind)
			assert.False(t, mt.failed)
		})
	}

	mt := &mockT{}
	successResult().AssertErrorKind(mt, ErrorKindCustom)
	assert.True(t, mt.failed)
	assert.Contains(t, mt.output(), "Expected error kind Custom, got None")

	code, ok := failedResult("custom program error: 0xff").CustomCode()
	assert.True(t, ok)
	assert.Equal(t, uint32(255), code)
	_, ok = successResult().CustomCode()
	assert.False(t, ok)

	assert.Equal(t, "AccountNotFound", ErrorKindAccountNotFound.String())
	assert.Equal(t, "Unknown(99)", ErrorKind(99).String())
}

func TestWithInstructionName(t *testing.T) {
	r := successResult()
	named := r.WithInstructionName("make_offer")
	assert.Equal(t, "make_offer", named.InstructionName())
	assert.Empty(t, r.InstructionName(), "原结果不变")
	assert.Equal(t,
		`Result{instruction="make_offer" success=true error="" compute_units=150 log_count=2}`,
		named.String())
}

func TestReportGolden(t *testing.T) {
	r := failedResult("Error processing Instruction 0: custom program error: 0x1770",
		"Program "+testProgram+" invoke [1]",
		"Program log: Instruction: MakeOffer",
		"Program "+testProgram+" consumed 1200 of 200000 compute units",
		"Program "+testProgram+" failed: custom program error: 0x1770",
	).WithInstructionName("make_offer")

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "failed_report", []byte(r.Report()))
}
