package instruction

import (
	sdktypes "github.com/blocto/solana-go-sdk/types"

	"sol-harness/internal/discriminator"
	"sol-harness/internal/types"
)

// AccountMeta 指令引用的账户及其签名/可写标记
type AccountMeta struct {
	Pubkey     types.Pubkey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta 可写账户
func NewAccountMeta(pubkey types.Pubkey, isSigner bool) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: isSigner, IsWritable: true}
}

// NewReadonlyAccountMeta 只读账户
func NewReadonlyAccountMeta(pubkey types.Pubkey, isSigner bool) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: isSigner, IsWritable: false}
}

func (m AccountMeta) ToSDK() sdktypes.AccountMeta {
	return sdktypes.AccountMeta{
		PubKey:     m.Pubkey.ToSDK(),
		IsSigner:   m.IsSigner,
		IsWritable: m.IsWritable,
	}
}

// Instruction 提交给执行方的三元组：程序、有序账户列表、数据
type Instruction struct {
	ProgramID types.Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// Discriminator 返回数据前 8 字节，数据不足时 ok=false
func (ix Instruction) Discriminator() (discriminator.Discriminator, bool) {
	var d discriminator.Discriminator
	if len(ix.Data) < discriminator.Size {
		return d, false
	}
	copy(d[:], ix.Data[:discriminator.Size])
	return d, true
}

// Clone 深拷贝，避免调用方之间共享切片
func (ix Instruction) Clone() Instruction {
	out := Instruction{ProgramID: ix.ProgramID}
	if ix.Accounts != nil {
		out.Accounts = append(make([]AccountMeta, 0, len(ix.Accounts)), ix.Accounts...)
	}
	if ix.Data != nil {
		out.Data = append(make([]byte, 0, len(ix.Data)), ix.Data...)
	}
	return out
}

func (ix Instruction) ToSDK() sdktypes.Instruction {
	metas := make([]sdktypes.AccountMeta, 0, len(ix.Accounts))
	for _, m := range ix.Accounts {
		metas = append(metas, m.ToSDK())
	}
	data := make([]byte, len(ix.Data))
	copy(data, ix.Data)
	return sdktypes.Instruction{
		ProgramID: ix.ProgramID.ToSDK(),
		Accounts:  metas,
		Data:      data,
	}
}

// FromSDK 将 blocto SDK 构造的指令（如 system.Transfer）转换为内部类型
func FromSDK(ix sdktypes.Instruction) Instruction {
	metas := make([]AccountMeta, 0, len(ix.Accounts))
	for _, m := range ix.Accounts {
		metas = append(metas, AccountMeta{
			Pubkey:     types.PubkeyFromSDK(m.PubKey),
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		})
	}
	data := make([]byte, len(ix.Data))
	copy(data, ix.Data)
	return Instruction{
		ProgramID: types.PubkeyFromSDK(ix.ProgramID),
		Accounts:  metas,
		Data:      data,
	}
}

// ToSDKList 批量转换
func ToSDKList(ixs []Instruction) []sdktypes.Instruction {
	out := make([]sdktypes.Instruction, 0, len(ixs))
	for _, ix := range ixs {
		out = append(out, ix.ToSDK())
	}
	return out
}
