package svm

import (
	"sol-harness/internal/consts"
	"sol-harness/internal/types"
)

// Account 账本中的账户状态
type Account struct {
	Lamports   uint64
	Data       []byte
	Owner      types.Pubkey
	Executable bool
}

// NewSystemAccount 由 System Program 持有的空数据账户
func NewSystemAccount(lamports uint64) Account {
	return Account{Lamports: lamports, Owner: consts.SystemProgram}
}

func (a Account) Clone() Account {
	cp := a
	if a.Data != nil {
		cp.Data = append(make([]byte, 0, len(a.Data)), a.Data...)
	}
	return cp
}

// RentExempt 余额是否达到免租要求
func (a Account) RentExempt() bool {
	return a.Lamports >= consts.RentExemptMinimum(len(a.Data))
}

// rentState 交易前后的租金状态
type rentState int

const (
	rentUninitialized rentState = iota
	rentPaying
	rentExempt
)

func (a Account) rentState() rentState {
	switch {
	case a.Lamports == 0:
		return rentUninitialized
	case a.RentExempt():
		return rentExempt
	default:
		return rentPaying
	}
}
