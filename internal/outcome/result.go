package outcome

import (
	"fmt"
	"strings"

	"sol-harness/internal/oracle"
)

// Result 一次提交的执行结果，构造后不可变
type Result struct {
	logs            []string
	err             error
	computeUnits    uint64
	inner           []oracle.InnerInstruction
	instructionName string
}

// New 包装执行方返回的原始结果，日志切片会被复制
func New(raw oracle.RawOutcome) *Result {
	logs := make([]string, len(raw.Logs))
	copy(logs, raw.Logs)
	return &Result{
		logs:         logs,
		err:          raw.Err,
		computeUnits: raw.ComputeUnits,
		inner:        cloneInner(raw.InnerInstructions),
	}
}

func cloneInner(in []oracle.InnerInstruction) []oracle.InnerInstruction {
	if len(in) == 0 {
		return nil
	}
	out := make([]oracle.InnerInstruction, len(in))
	for i, ix := range in {
		out[i] = oracle.InnerInstruction{Index: ix.Index, Instruction: ix.Clone()}
	}
	return out
}

// InnerInstructions 执行方记录的 CPI（副本），执行方不支持时为空
func (r *Result) InnerInstructions() []oracle.InnerInstruction {
	return cloneInner(r.inner)
}

// WithInstructionName 返回带指令名（仅用于调试输出）的副本
func (r *Result) WithInstructionName(name string) *Result {
	cp := *r
	cp.instructionName = name
	return &cp
}

func (r *Result) InstructionName() string {
	return r.instructionName
}

func (r *Result) IsSuccess() bool {
	return r.err == nil
}

// Err 原始错误，成功时为 nil
func (r *Result) Err() error {
	return r.err
}

// ErrorMessage 原始错误文本，成功时为空
func (r *Result) ErrorMessage() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Logs 返回日志副本
func (r *Result) Logs() []string {
	out := make([]string, len(r.logs))
	copy(out, r.logs)
	return out
}

func (r *Result) HasLog(substr string) bool {
	_, ok := r.FindLog(substr)
	return ok
}

// FindLog 返回第一条包含 substr 的日志
func (r *Result) FindLog(substr string) (string, bool) {
	for _, l := range r.logs {
		if strings.Contains(l, substr) {
			return l, true
		}
	}
	return "", false
}

// ComputeUnits 消耗的计算单元，失败时也可能非零
func (r *Result) ComputeUnits() uint64 {
	return r.computeUnits
}

func (r *Result) joinedLogs() string {
	return strings.Join(r.logs, "\n")
}

// Report 与 PrintLogs 相同格式的文本
func (r *Result) Report() string {
	var sb strings.Builder
	sb.WriteString("=== Transaction Logs ===\n")
	if r.instructionName != "" {
		fmt.Fprintf(&sb, "Instruction: %s\n", r.instructionName)
	}
	for _, l := range r.logs {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	if r.err != nil {
		fmt.Fprintf(&sb, "Error: %s\n", r.err)
	}
	fmt.Fprintf(&sb, "Compute Units: %d\n", r.computeUnits)
	sb.WriteString("========================\n")
	return sb.String()
}

// PrintLogs 打印到标准输出，调试用
func (r *Result) PrintLogs() {
	fmt.Print(r.Report())
}

func (r *Result) String() string {
	return fmt.Sprintf("Result{instruction=%q success=%t error=%q compute_units=%d log_count=%d}",
		r.instructionName, r.IsSuccess(), r.ErrorMessage(), r.computeUnits, len(r.logs))
}
