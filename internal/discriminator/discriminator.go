package discriminator

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

const Size = 8

// 约定的命名空间
const (
	NamespaceGlobal  = "global"
	NamespaceAccount = "account"
	NamespaceEvent   = "event"
	NamespaceState   = "state"
)

// Discriminator sha256("<namespace>:<name>") 的前 8 字节
type Discriminator [Size]byte

// EventCPI 通过 self-CPI 记录事件时指令数据的前缀
// 取 sha256("anchor:event")[:8] 的大端整数，再按小端写出
var EventCPI = eventCPITag()

func eventCPITag() Discriminator {
	tag := Compute("anchor", "event")
	var d Discriminator
	binary.LittleEndian.PutUint64(d[:], tag.Uint64())
	return d
}

// Compute 计算任意命名空间下的 discriminator，名称为空也合法
func Compute(namespace, name string) Discriminator {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d Discriminator
	copy(d[:], sum[:Size])
	return d
}

// Instruction 指令名的 discriminator（global 命名空间）
func Instruction(name string) Discriminator {
	return Compute(NamespaceGlobal, name)
}

// Account 账户类型名的 discriminator，名称使用结构体名（如 "Escrow"）
func Account(name string) Discriminator {
	return Compute(NamespaceAccount, name)
}

// Event 事件类型名的 discriminator
func Event(name string) Discriminator {
	return Compute(NamespaceEvent, name)
}

// Uint64 大端整数视图，便于与 binary.BigEndian.Uint64(data[:8]) 直接比较
func (d Discriminator) Uint64() uint64 {
	return binary.BigEndian.Uint64(d[:])
}

func (d Discriminator) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, d[:])
	return b
}

func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}

// Matches 判断 data 是否以该 discriminator 开头
func (d Discriminator) Matches(data []byte) bool {
	return len(data) >= Size && bytes.Equal(data[:Size], d[:])
}

// FromUint64 由大端整数常量还原 discriminator
func FromUint64(v uint64) Discriminator {
	var d Discriminator
	binary.BigEndian.PutUint64(d[:], v)
	return d
}
