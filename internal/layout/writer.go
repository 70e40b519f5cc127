package layout

import (
	"encoding/binary"

	"sol-harness/internal/types"
)

// Writer 顺序写入固定布局字节
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteU64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) WriteI8(v int8)   { w.WriteU8(uint8(v)) }
func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) }
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }
func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
		return
	}
	w.WriteU8(0)
}

// WriteFixed 原样写入，不带长度前缀
func (w *Writer) WriteFixed(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteBytes u32 长度前缀 + 内容
func (w *Writer) WriteBytes(b []byte) {
	w.WriteU32(uint32(len(b)))
	w.WriteFixed(b)
}

func (w *Writer) WriteString(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) WritePubkey(p types.Pubkey) {
	w.WriteFixed(p[:])
}

// WriteOption 写入 Option 标记，present 为 true 时调用方随后写入值
func (w *Writer) WriteOption(present bool) {
	w.WriteBool(present)
}

func (w *Writer) WriteOptionU64(v *uint64) {
	w.WriteOption(v != nil)
	if v != nil {
		w.WriteU64(*v)
	}
}

func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes 返回已写入内容的副本
func (w *Writer) Bytes() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}
