package svm

import (
	"encoding/base64"
	"fmt"
	"strings"

	"sol-harness/internal/consts"
	"sol-harness/internal/discriminator"
	"sol-harness/internal/instruction"
	"sol-harness/internal/oracle"
	"sol-harness/internal/pda"
	"sol-harness/internal/txerror"
	"sol-harness/internal/types"
)

// AccountInfo 指令执行期间可见的账户；同一地址多次出现时共享同一个 *Account
type AccountInfo struct {
	Key        types.Pubkey
	IsSigner   bool
	IsWritable bool
	*Account
}

// Processor 程序的执行逻辑，返回 nil 表示成功
type Processor interface {
	Process(ctx *InvokeContext, data []byte) error
}

// ProcessorFunc 允许直接用函数注册程序
type ProcessorFunc func(ctx *InvokeContext, data []byte) error

func (f ProcessorFunc) Process(ctx *InvokeContext, data []byte) error {
	return f(ctx, data)
}

// InvokeContext 单条指令的执行上下文
type InvokeContext struct {
	programID types.Pubkey
	index     int
	accounts  []*AccountInfo
	logs      *logCollector
	meter     *computeMeter
	slot      uint64
}

// eventAuthoritySeed Anchor emit_cpi! 使用的事件权限 PDA 种子
const eventAuthoritySeed = "__event_authority"

func (c *InvokeContext) ProgramID() types.Pubkey {
	return c.programID
}

func (c *InvokeContext) NumAccounts() int {
	return len(c.accounts)
}

// Account 第 i 个账户，越界返回 NotEnoughAccountKeys
func (c *InvokeContext) Account(i int) (*AccountInfo, error) {
	if i < 0 || i >= len(c.accounts) {
		return nil, txerror.ErrNotEnoughAccountKeys
	}
	return c.accounts[i], nil
}

// Log 输出 "Program log: ..."
func (c *InvokeContext) Log(format string, args ...any) {
	c.logs.add("Program log: " + fmt.Sprintf(format, args...))
}

// LogData 输出 "Program data: <base64> ..."，事件使用
func (c *InvokeContext) LogData(chunks ...[]byte) {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, base64.StdEncoding.EncodeToString(chunk))
	}
	c.logs.add("Program data: " + strings.Join(parts, " "))
}

// EmitCPIEvent 以 self-CPI 方式记录事件：指令数据为 EventCPI 前缀加 event（含事件 discriminator）
func (c *InvokeContext) EmitCPIEvent(event []byte) {
	data := make([]byte, 0, discriminator.Size+len(event))
	data = append(data, discriminator.EventCPI.Bytes()...)
	data = append(data, event...)

	ix := instruction.Instruction{ProgramID: c.programID, Data: data}
	if authority, err := pda.FindAddress([][]byte{[]byte(eventAuthoritySeed)}, c.programID); err == nil {
		ix.Accounts = []instruction.AccountMeta{{Pubkey: authority, IsSigner: true}}
	}

	c.logs.addf("Program %s invoke [2]", c.programID)
	c.logs.inner = append(c.logs.inner, oracle.InnerInstruction{Index: c.index, Instruction: ix})
	c.logs.addf("Program %s success", c.programID)
}

// ConsumeUnits 扣除计算单元，超出预算返回 ComputationalBudgetExceeded
func (c *InvokeContext) ConsumeUnits(units uint64) error {
	return c.meter.consume(units)
}

func (c *InvokeContext) RemainingUnits() uint64 {
	return c.meter.remaining()
}

func (c *InvokeContext) RentExemptMinimum(dataLen int) uint64 {
	return consts.RentExemptMinimum(dataLen)
}

func (c *InvokeContext) Slot() uint64 {
	return c.slot
}

type computeMeter struct {
	limit    uint64
	consumed uint64
}

func (m *computeMeter) consume(units uint64) error {
	if units > m.remaining() {
		m.consumed = m.limit
		return txerror.ErrComputationalBudgetExceeded
	}
	m.consumed += units
	return nil
}

func (m *computeMeter) remaining() uint64 {
	return m.limit - m.consumed
}

// logCollector 收集日志行与 CPI 记录
type logCollector struct {
	lines []string
	inner []oracle.InnerInstruction
}

func (l *logCollector) add(line string) {
	l.lines = append(l.lines, line)
}

func (l *logCollector) addf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}
