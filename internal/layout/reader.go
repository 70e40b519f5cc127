package layout

import (
	"encoding/binary"
	"errors"
	"fmt"

	"sol-harness/internal/types"
)

var (
	ErrUnexpectedEOF = errors.New("unexpected end of data")
	ErrInvalidBool   = errors.New("invalid bool value")
	ErrTrailingBytes = errors.New("trailing bytes after decode")
)

// Reader 按固定布局顺序读取；首个错误之后的读取全部返回零值，最后统一检查 Err
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.off < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEOF, n, r.off, len(r.data)-r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadU8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) ReadU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) ReadU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) ReadU64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) ReadI8() int8   { return int8(r.ReadU8()) }
func (r *Reader) ReadI16() int16 { return int16(r.ReadU16()) }
func (r *Reader) ReadI32() int32 { return int32(r.ReadU32()) }
func (r *Reader) ReadI64() int64 { return int64(r.ReadU64()) }

func (r *Reader) ReadBool() bool {
	v := r.ReadU8()
	if r.err != nil {
		return false
	}
	switch v {
	case 0:
		return false
	case 1:
		return true
	default:
		r.err = fmt.Errorf("%w: %d at offset %d", ErrInvalidBool, v, r.off-1)
		return false
	}
}

// ReadOption 读取 Option 标记
func (r *Reader) ReadOption() bool {
	return r.ReadBool()
}

func (r *Reader) ReadOptionU64() *uint64 {
	if !r.ReadOption() {
		return nil
	}
	v := r.ReadU64()
	if r.err != nil {
		return nil
	}
	return &v
}

// ReadFixed 读取 n 字节（返回副本）
func (r *Reader) ReadFixed(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ReadBytes 读取 u32 长度前缀的字节串
func (r *Reader) ReadBytes() []byte {
	n := r.ReadU32()
	if r.err != nil {
		return nil
	}
	return r.ReadFixed(int(n))
}

func (r *Reader) ReadString() string {
	return string(r.ReadBytes())
}

func (r *Reader) ReadPubkey() types.Pubkey {
	var p types.Pubkey
	b := r.take(types.PubkeyLength)
	if b != nil {
		copy(p[:], b)
	}
	return p
}

func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) Err() error {
	return r.err
}

// Finish 要求数据恰好读完
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if rem := r.Remaining(); rem != 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingBytes, rem)
	}
	return nil
}
