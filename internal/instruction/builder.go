package instruction

import (
	"errors"
	"fmt"

	"sol-harness/internal/discriminator"
	"sol-harness/internal/layout"
	"sol-harness/internal/types"
)

var ErrMissingPayload = errors.New("no instruction data provided, call Args before Instruction")

// Program 目标程序句柄，默认使用 global 命名空间计算指令 discriminator
type Program struct {
	id        types.Pubkey
	namespace string
}

func NewProgram(id types.Pubkey) Program {
	return Program{id: id, namespace: discriminator.NamespaceGlobal}
}

func (p Program) ID() types.Pubkey {
	return p.id
}

func (p Program) Namespace() string {
	return p.namespace
}

// WithNamespace 返回使用其他命名空间的句柄
func (p Program) WithNamespace(namespace string) Program {
	p.namespace = namespace
	return p
}

// Accounts 开始构造一条指令：目标 -> 账户 -> 参数 -> 生成
func (p Program) Accounts(provider AccountsProvider) Builder {
	var metas []AccountMeta
	if provider != nil {
		src := provider.AccountMetas()
		metas = make([]AccountMeta, len(src))
		copy(metas, src)
	}
	return Builder{program: p, accounts: metas}
}

// Builder 值类型，每一步返回新的 Builder，不修改接收者
type Builder struct {
	program  Program
	accounts []AccountMeta
	name     string
	data     []byte
	hasData  bool
	err      error
}

// Args 附加 discriminator(namespace:name) + 参数编码；编码错误延迟到 Instruction 返回
func (b Builder) Args(name string, args any) Builder {
	b.name = name
	b.hasData = true
	b.err = nil

	encoded, err := layout.Marshal(args)
	if err != nil {
		b.data = nil
		b.err = fmt.Errorf("encode args of %q: %w", name, err)
		return b
	}

	d := discriminator.Compute(b.program.namespace, name)
	data := make([]byte, 0, discriminator.Size+len(encoded))
	data = append(data, d[:]...)
	data = append(data, encoded...)
	b.data = data
	return b
}

// RawData 直接使用给定字节作为指令数据（非 Anchor 程序）
func (b Builder) RawData(data []byte) Builder {
	b.name = ""
	b.hasData = true
	b.err = nil
	b.data = append(make([]byte, 0, len(data)), data...)
	return b
}

// Name 最近一次 Args 使用的指令名
func (b Builder) Name() string {
	return b.name
}

// Instruction 生成最终指令；未附加数据返回 ErrMissingPayload
func (b Builder) Instruction() (Instruction, error) {
	if b.err != nil {
		return Instruction{}, b.err
	}
	if !b.hasData {
		return Instruction{}, ErrMissingPayload
	}
	ix := Instruction{
		ProgramID: b.program.id,
		Accounts:  b.accounts,
		Data:      b.data,
	}
	return ix.Clone(), nil
}

// Build 一次性构造 global 命名空间下的指令
func Build(programID types.Pubkey, name string, accounts AccountsProvider, args any) (Instruction, error) {
	return NewProgram(programID).Accounts(accounts).Args(name, args).Instruction()
}
