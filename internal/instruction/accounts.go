package instruction

import "sol-harness/internal/types"

// AccountsProvider 能够按程序要求的顺序给出账户列表的类型
// 通常是每条指令一个结构体，字段顺序即账户顺序
type AccountsProvider interface {
	AccountMetas() []AccountMeta
}

// AccountList 直接以切片形式提供账户
type AccountList []AccountMeta

func (l AccountList) AccountMetas() []AccountMeta {
	return l
}

// Accounts 便于内联书写：instruction.Accounts(meta1, meta2, ...)
func Accounts(metas ...AccountMeta) AccountList {
	return AccountList(metas)
}

// Signer 可写签名账户
func Signer(pubkey types.Pubkey) AccountMeta {
	return NewAccountMeta(pubkey, true)
}

// Writable 可写非签名账户
func Writable(pubkey types.Pubkey) AccountMeta {
	return NewAccountMeta(pubkey, false)
}

// Readonly 只读非签名账户
func Readonly(pubkey types.Pubkey) AccountMeta {
	return NewReadonlyAccountMeta(pubkey, false)
}
