package types

import (
	"crypto/rand"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

const PubkeyLength = 32

type Pubkey [PubkeyLength]byte

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Equals(other Pubkey) bool {
	return p == other
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

func (p Pubkey) Bytes() []byte {
	b := make([]byte, PubkeyLength)
	copy(b, p[:])
	return b
}

// IsOnCurve 判断 32 字节是否能解码为 ed25519 曲线上的点；PDA 必须不在曲线上
func (p Pubkey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(p[:])
	return err == nil
}

// ToSDK 转换为 blocto SDK 的地址类型
func (p Pubkey) ToSDK() common.PublicKey {
	return common.PublicKey(p)
}

func PubkeyFromSDK(pk common.PublicKey) Pubkey {
	return Pubkey(pk)
}

func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText 支持在 yaml/json 配置中直接书写 base58 地址
func (p *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := TryPubkeyFromBase58(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TryPubkeyFromBase58 解析 base58 字符串为 Pubkey，失败时返回 error（用于不信任输入路径）
func TryPubkeyFromBase58(s string) (Pubkey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("failed to decode base58 pubkey %q: %w", s, err)
	}
	return PubkeyFromBytes(data)
}

func PubkeyFromBytes(data []byte) (Pubkey, error) {
	if len(data) != PubkeyLength {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want %d", len(data), PubkeyLength)
	}
	var p Pubkey
	copy(p[:], data)
	return p, nil
}

// PubkeyFromBase58 仅用于常量地址，解析失败直接 panic
func PubkeyFromBase58(s string) Pubkey {
	p, err := TryPubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}

// NewUniquePubkey 生成随机地址，测试中用作程序 ID 或占位账户
func NewUniquePubkey() Pubkey {
	var p Pubkey
	if _, err := rand.Read(p[:]); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %w", err))
	}
	return p
}
