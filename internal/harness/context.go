package harness

import (
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"sol-harness/internal/consts"
	"sol-harness/internal/instruction"
	"sol-harness/internal/oracle"
	"sol-harness/internal/outcome"
	"sol-harness/internal/types"
)

// DefaultPayerLamports 新建 Context 时默认付款账户的余额
const DefaultPayerLamports = 10 * consts.LamportsPerSol

// Context 绑定一个执行方和一个主程序
type Context struct {
	oracle  oracle.Oracle
	program instruction.Program
	payer   sdktypes.Account
}

// NewContext 创建并注资默认付款账户，执行方必须支持 Airdrop
func NewContext(o oracle.Oracle, programID types.Pubkey) (*Context, error) {
	payer, err := CreateFundedAccount(o, DefaultPayerLamports)
	if err != nil {
		return nil, fmt.Errorf("failed to fund payer: %w", err)
	}
	return NewContextWithPayer(o, programID, payer), nil
}

func NewContextWithPayer(o oracle.Oracle, programID types.Pubkey, payer sdktypes.Account) *Context {
	return &Context{
		oracle:  o,
		program: instruction.NewProgram(programID),
		payer:   payer,
	}
}

func (c *Context) Oracle() oracle.Oracle {
	return c.oracle
}

func (c *Context) Program() instruction.Program {
	return c.program
}

func (c *Context) ProgramID() types.Pubkey {
	return c.program.ID()
}

func (c *Context) Payer() sdktypes.Account {
	return c.payer
}

// Execute 完成构建并提交，结果带上指令名
func (c *Context) Execute(b instruction.Builder, signers ...sdktypes.Account) (*outcome.Result, error) {
	ix, err := b.Instruction()
	if err != nil {
		return nil, err
	}
	res, err := c.ExecuteInstruction(ix, signers...)
	if err != nil {
		return nil, err
	}
	return res.WithInstructionName(b.Name()), nil
}

// ExecuteInstruction 未指定签名者时使用默认付款账户
func (c *Context) ExecuteInstruction(ix instruction.Instruction, signers ...sdktypes.Account) (*outcome.Result, error) {
	return Send(c.oracle, ix, c.signersOrPayer(signers)...)
}

func (c *Context) ExecuteBatch(ixs []instruction.Instruction, signers ...sdktypes.Account) (*outcome.Result, error) {
	return SendBatch(c.oracle, ixs, c.signersOrPayer(signers)...)
}

func (c *Context) signersOrPayer(signers []sdktypes.Account) []sdktypes.Account {
	if len(signers) == 0 {
		return []sdktypes.Account{c.payer}
	}
	return signers
}

func (c *Context) CreateFundedAccount(lamports uint64) (sdktypes.Account, error) {
	return CreateFundedAccount(c.oracle, lamports)
}

// GetPDA 以主程序为 owner 推导
func (c *Context) GetPDA(seeds ...[]byte) (types.Pubkey, error) {
	return GetPDA(seeds, c.program.ID())
}

func (c *Context) GetPDAWithBump(seeds ...[]byte) (types.Pubkey, uint8, error) {
	return GetPDAWithBump(seeds, c.program.ID())
}

func (c *Context) GetAccount(pubkey types.Pubkey, name string, dst any) error {
	return GetAnchorAccount(c.oracle, pubkey, name, dst)
}

func (c *Context) Balance(pubkey types.Pubkey) (uint64, error) {
	return Balance(c.oracle, pubkey)
}

func (c *Context) AdvanceSlot(slots uint64) error {
	return AdvanceSlot(c.oracle, slots)
}
