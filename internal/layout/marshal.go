package layout

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/near/borsh-go"
)

// Marshaler 参数类型自行输出字节（不走 borsh 反射）
type Marshaler interface {
	MarshalLayout() ([]byte, error)
}

// Unmarshaler 账户/事件类型自行解析字节
type Unmarshaler interface {
	UnmarshalLayout(data []byte) error
}

var ErrUnsupportedType = errors.New("unsupported type for layout encoding")

var bigIntType = reflect.TypeOf(big.Int{})

// Marshal 按固定布局编码参数：
// 整数小端定长，bool 1 字节，字符串/切片 u32 小端长度前缀，指针为 1 字节 Option 标记，结构体按字段声明顺序
// nil 表示无参数，输出空字节；顶层指针按其指向的值编码
func Marshal(v any) (data []byte, err error) {
	if v == nil {
		return []byte{}, nil
	}
	if m, ok := v.(Marshaler); ok {
		return m.MarshalLayout()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %s", ErrUnsupportedType, rv.Type())
		}
		rv = rv.Elem()
	}
	if err := checkEncodable(rv.Type(), map[reflect.Type]bool{}); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("borsh serialize %T panic: %v", v, r)
		}
	}()
	data, err = borsh.Serialize(rv.Interface())
	if err != nil {
		return nil, fmt.Errorf("borsh serialize %T: %w", v, err)
	}
	return data, nil
}

// MustMarshal 仅用于测试与常量参数
func MustMarshal(v any) []byte {
	data, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// Unmarshal Marshal 的逆操作，v 必须为非 nil 指针
func Unmarshal(data []byte, v any) (err error) {
	if u, ok := v.(Unmarshaler); ok {
		return u.UnmarshalLayout(data)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", ErrUnsupportedType, v)
	}
	if err := checkEncodable(rv.Type().Elem(), map[reflect.Type]bool{}); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("borsh deserialize %T panic: %v", v, r)
		}
	}()
	if err := borsh.Deserialize(v, data); err != nil {
		return fmt.Errorf("borsh deserialize %T: %w", v, err)
	}
	return nil
}

// borsh 对不支持的类型会静默跳过，这里提前拒绝
func checkEncodable(t reflect.Type, visiting map[reflect.Type]bool) error {
	if visiting[t] {
		return nil
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return nil
	case reflect.Array, reflect.Slice, reflect.Ptr:
		return checkEncodable(t.Elem(), visiting)
	case reflect.Map:
		if err := checkEncodable(t.Key(), visiting); err != nil {
			return err
		}
		return checkEncodable(t.Elem(), visiting)
	case reflect.Struct:
		if t == bigIntType {
			return nil
		}
		visiting[t] = true
		defer delete(visiting, t)
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Tag.Get("borsh_skip") == "true" {
				continue
			}
			if err := checkEncodable(f.Type, visiting); err != nil {
				return fmt.Errorf("field %s.%s: %w", t.Name(), f.Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}
