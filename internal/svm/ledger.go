package svm

import (
	"errors"
	"fmt"
	"sync"

	"sol-harness/internal/consts"
	"sol-harness/internal/oracle"
	"sol-harness/internal/types"
	"sol-harness/pkg/logger"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrBuiltinProgram   = errors.New("cannot replace builtin program")
	ErrLamportsOverflow = errors.New("lamports overflow")
)

var (
	_ oracle.Oracle        = (*Ledger)(nil)
	_ oracle.Funder        = (*Ledger)(nil)
	_ oracle.AccountReader = (*Ledger)(nil)
	_ oracle.SlotAdvancer  = (*Ledger)(nil)
)

// Option 账本选项
type Option func(*Ledger)

// WithLamportsPerSignature 每个签名的手续费
func WithLamportsPerSignature(lamports uint64) Option {
	return func(l *Ledger) {
		l.lamportsPerSignature = lamports
	}
}

// WithComputeUnitLimit 每条指令的计算单元预算，总量不超过 MaxComputeUnitLimit
func WithComputeUnitLimit(units uint64) Option {
	return func(l *Ledger) {
		if units > 0 {
			l.computeUnitLimit = units
		}
	}
}

// WithSlot 起始 slot
func WithSlot(slot uint64) Option {
	return func(l *Ledger) {
		l.slot = slot
	}
}

// Ledger 进程内模拟账本，实现 oracle.Oracle / Funder / AccountReader / SlotAdvancer
type Ledger struct {
	mu sync.Mutex

	accounts  map[types.Pubkey]Account
	programs  map[types.Pubkey]Processor
	builtins  map[types.Pubkey]struct{}
	processed map[string]struct{}

	slot      uint64
	blockhash types.Hash

	lamportsPerSignature uint64
	computeUnitLimit     uint64
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		accounts:             make(map[types.Pubkey]Account),
		programs:             make(map[types.Pubkey]Processor),
		builtins:             make(map[types.Pubkey]struct{}),
		processed:            make(map[string]struct{}),
		lamportsPerSignature: consts.DefaultLamportsPerSignature,
		computeUnitLimit:     consts.DefaultComputeUnitLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.blockhash = types.NextHash(types.Hash{}, l.slot)

	for _, str := range consts.BuiltinPrograms {
		id := types.PubkeyFromBase58(str)
		l.builtins[id] = struct{}{}
		l.accounts[id] = Account{Lamports: 1, Owner: consts.NativeLoader, Executable: true}
	}
	l.programs[consts.SystemProgram] = systemProgram{}
	l.programs[consts.ComputeBudgetProgram] = computeBudgetProgram{}
	return l
}

// RegisterProgram 注册（或替换）Go 实现的测试程序
func (l *Ledger) RegisterProgram(id types.Pubkey, p Processor) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.builtins[id]; ok {
		return fmt.Errorf("%w: %s", ErrBuiltinProgram, id)
	}
	l.programs[id] = p
	l.accounts[id] = Account{
		Lamports:   consts.RentExemptMinimum(types.PubkeyLength + 4),
		Owner:      consts.BPFLoaderUpgradeable,
		Executable: true,
	}
	logger.Debugf("[svm] registered program %s", id)
	return nil
}

// SetAccount 直接写入账户状态，lamports 为 0 视为删除
func (l *Ledger) SetAccount(pubkey types.Pubkey, acc Account) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if acc.Lamports == 0 {
		delete(l.accounts, pubkey)
		return
	}
	l.accounts[pubkey] = acc.Clone()
}

func (l *Ledger) GetAccount(pubkey types.Pubkey) (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[pubkey]
	if !ok {
		return Account{}, false
	}
	return acc.Clone(), true
}

// GetBalance 不存在的账户余额为 0
func (l *Ledger) GetBalance(pubkey types.Pubkey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[pubkey].Lamports, nil
}

func (l *Ledger) GetAccountData(pubkey types.Pubkey) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[pubkey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
	}
	return acc.Clone().Data, nil
}

// Airdrop 直接增加余额，账户不存在时创建 System 账户
func (l *Ledger) Airdrop(pubkey types.Pubkey, lamports uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[pubkey]
	if !ok {
		acc = NewSystemAccount(0)
	}
	if acc.Lamports > ^uint64(0)-lamports {
		return fmt.Errorf("%w: %s", ErrLamportsOverflow, pubkey)
	}
	acc.Lamports += lamports
	if acc.Lamports > 0 {
		l.accounts[pubkey] = acc
	}
	logger.Debugf("[svm] airdrop %d lamports to %s", lamports, pubkey)
	return nil
}

func (l *Ledger) CurrentSlot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

// AdvanceSlot 推进 slot 并轮换 blockhash
func (l *Ledger) AdvanceSlot(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.slot += n
	l.blockhash = types.NextHash(l.blockhash, l.slot)
}

func (l *Ledger) LatestBlockhash() types.Hash {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blockhash
}

func (l *Ledger) LamportsPerSignature() uint64 {
	return l.lamportsPerSignature
}
