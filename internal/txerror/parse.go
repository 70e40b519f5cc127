package txerror

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ParseTransactionError 解析 RPC 响应中 "err" 字段的 JSON 值
// 形如 "AccountNotFound"、{"InstructionError":[0,{"Custom":6000}]}、{"InsufficientFundsForRent":{"account_index":2}}
func ParseTransactionError(raw any) (*TransactionError, error) {
	if raw == nil {
		return nil, nil
	}

	switch t := raw.(type) {
	case string:
		return NewTransactionError(TransactionErrorKey(t)), nil
	case map[string]any:
		if len(t) != 1 {
			return nil, fmt.Errorf("invalid transaction error size: %d", len(t))
		}
		var k string
		var v any
		for k, v = range t {
		}

		switch TransactionErrorKey(k) {
		case TransactionErrorInstructionError:
			ixErr, err := parseInstructionError(v)
			if err != nil {
				return nil, fmt.Errorf("failed to parse instruction error: %w", err)
			}
			return &TransactionError{Key: TransactionErrorInstructionError, Instruction: ixErr}, nil
		case TransactionErrorInsufficientFundsForRent:
			fields, ok := v.(map[string]any)
			if !ok {
				return nil, errors.New("unexpected InsufficientFundsForRent format")
			}
			idx, err := parseJSONNumber(fields["account_index"])
			if err != nil {
				return nil, err
			}
			return NewInsufficientFundsForRent(idx), nil
		default:
			return NewTransactionError(TransactionErrorKey(k)), nil
		}
	default:
		return nil, fmt.Errorf("unhandled transaction error type %T", raw)
	}
}

func parseInstructionError(v any) (*InstructionError, error) {
	values, ok := v.([]any)
	if !ok {
		return nil, errors.New("unexpected instruction error format")
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected entries in InstructionError tuple: %d", len(values))
	}

	index, err := parseJSONNumber(values[0])
	if err != nil {
		return nil, err
	}

	e := &InstructionError{Index: index}
	switch t := values[1].(type) {
	case string:
		e.Err = BuiltinError{Key: InstructionErrorKey(t)}
	case map[string]any:
		if len(t) != 1 {
			return nil, fmt.Errorf("invalid instruction result size: %d", len(t))
		}
		var k string
		var inner any
		for k, inner = range t {
		}
		if InstructionErrorKey(k) != InstructionErrorCustom {
			e.Err = BuiltinError{Key: InstructionErrorKey(k)}
			break
		}
		code, err := parseJSONNumber(inner)
		if err != nil {
			return nil, err
		}
		if code < 0 || uint64(code) > math.MaxUint32 {
			return nil, fmt.Errorf("custom error code out of range: %d", code)
		}
		e.Err = CustomError(code)
	default:
		return nil, fmt.Errorf("unhandled instruction error type %T", values[1])
	}
	return e, nil
}

func parseJSONNumber(v any) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		return int(n), err
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
