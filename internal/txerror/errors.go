package txerror

import (
	"errors"
	"fmt"
)

// TransactionErrorKey 交易级错误的字符串键（与 RPC 返回的 err 字段一致）
type TransactionErrorKey string

const (
	TransactionErrorAccountNotFound          TransactionErrorKey = "AccountNotFound"          // 付费账户不存在
	TransactionErrorProgramAccountNotFound   TransactionErrorKey = "ProgramAccountNotFound"   // 调用了不存在的程序
	TransactionErrorInsufficientFundsForFee  TransactionErrorKey = "InsufficientFundsForFee"  // 余额不足以支付手续费
	TransactionErrorAlreadyProcessed         TransactionErrorKey = "AlreadyProcessed"         // 相同签名的交易已处理
	TransactionErrorBlockhashNotFound        TransactionErrorKey = "BlockhashNotFound"        // blockhash 过期或未知
	TransactionErrorSignatureFailure         TransactionErrorKey = "SignatureFailure"         // 签名校验失败
	TransactionErrorInstructionError         TransactionErrorKey = "InstructionError"         // 某条指令执行失败
	TransactionErrorInsufficientFundsForRent TransactionErrorKey = "InsufficientFundsForRent" // 交易结束时账户不满足免租
	TransactionErrorSanitizeFailure          TransactionErrorKey = "SanitizeFailure"          // 交易结构非法
)

// InstructionErrorKey 指令级错误的字符串键
type InstructionErrorKey string

const (
	InstructionErrorGenericError                InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument             InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData      InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData          InstructionErrorKey = "InvalidAccountData"
	InstructionErrorAccountDataTooSmall         InstructionErrorKey = "AccountDataTooSmall"
	InstructionErrorInsufficientFunds           InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID          InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature    InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized   InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount        InstructionErrorKey = "UninitializedAccount"
	InstructionErrorUnbalancedInstruction       InstructionErrorKey = "UnbalancedInstruction"
	InstructionErrorModifiedProgramID           InstructionErrorKey = "ModifiedProgramId"
	InstructionErrorExternalAccountLamportSpend InstructionErrorKey = "ExternalAccountLamportSpend"
	InstructionErrorExternalAccountDataModified InstructionErrorKey = "ExternalAccountDataModified"
	InstructionErrorReadonlyLamportChange       InstructionErrorKey = "ReadonlyLamportChange"
	InstructionErrorReadonlyDataModified        InstructionErrorKey = "ReadonlyDataModified"
	InstructionErrorExecutableModified          InstructionErrorKey = "ExecutableModified"
	InstructionErrorNotEnoughAccountKeys        InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorAccountNotExecutable        InstructionErrorKey = "AccountNotExecutable"
	InstructionErrorComputationalBudgetExceeded InstructionErrorKey = "ComputationalBudgetExceeded"
	InstructionErrorUnsupportedProgramID        InstructionErrorKey = "UnsupportedProgramId"
	InstructionErrorArithmeticOverflow          InstructionErrorKey = "ArithmeticOverflow"
	InstructionErrorInvalidRealloc              InstructionErrorKey = "InvalidRealloc"
	InstructionErrorMissingAccount              InstructionErrorKey = "MissingAccount"
	InstructionErrorProgramFailedToComplete     InstructionErrorKey = "ProgramFailedToComplete"
	InstructionErrorCustom                      InstructionErrorKey = "Custom"
)

// 与运行时 Display 输出保持一致
var instructionErrorMessages = map[InstructionErrorKey]string{
	InstructionErrorGenericError:                "generic instruction error",
	InstructionErrorInvalidArgument:             "invalid program argument",
	InstructionErrorInvalidInstructionData:      "invalid instruction data",
	InstructionErrorInvalidAccountData:          "invalid account data for instruction",
	InstructionErrorAccountDataTooSmall:         "account data too small for instruction",
	InstructionErrorInsufficientFunds:           "insufficient funds for instruction",
	InstructionErrorIncorrectProgramID:          "incorrect program id for instruction",
	InstructionErrorMissingRequiredSignature:    "missing required signature for instruction",
	InstructionErrorAccountAlreadyInitialized:   "instruction requires an uninitialized account",
	InstructionErrorUninitializedAccount:        "instruction requires an initialized account",
	InstructionErrorUnbalancedInstruction:       "sum of account balances before and after instruction do not match",
	InstructionErrorModifiedProgramID:           "instruction illegally modified the program id of an account",
	InstructionErrorExternalAccountLamportSpend: "instruction spent from the balance of an account it does not own",
	InstructionErrorExternalAccountDataModified: "instruction modified data of an account it does not own",
	InstructionErrorReadonlyLamportChange:       "instruction changed the balance of a read-only account",
	InstructionErrorReadonlyDataModified:        "instruction modified data of a read-only account",
	InstructionErrorExecutableModified:          "instruction changed executable bit of an account",
	InstructionErrorNotEnoughAccountKeys:        "insufficient account keys for instruction",
	InstructionErrorAccountNotExecutable:        "instruction expected an executable account",
	InstructionErrorComputationalBudgetExceeded: "Computational budget exceeded",
	InstructionErrorUnsupportedProgramID:        "Unsupported program id",
	InstructionErrorArithmeticOverflow:          "Program arithmetic overflowed",
	InstructionErrorInvalidRealloc:              "Failed to reallocate account data",
	InstructionErrorMissingAccount:              "An account required by the instruction is missing",
	InstructionErrorProgramFailedToComplete:     "Program failed to complete",
}

// BuiltinError 运行时定义的指令错误
type BuiltinError struct {
	Key InstructionErrorKey
}

func (e BuiltinError) Error() string {
	if msg, ok := instructionErrorMessages[e.Key]; ok {
		return msg
	}
	return string(e.Key)
}

var (
	ErrGenericError                = BuiltinError{Key: InstructionErrorGenericError}
	ErrInvalidArgument             = BuiltinError{Key: InstructionErrorInvalidArgument}
	ErrInvalidInstructionData      = BuiltinError{Key: InstructionErrorInvalidInstructionData}
	ErrInvalidAccountData          = BuiltinError{Key: InstructionErrorInvalidAccountData}
	ErrAccountDataTooSmall         = BuiltinError{Key: InstructionErrorAccountDataTooSmall}
	ErrInsufficientFunds           = BuiltinError{Key: InstructionErrorInsufficientFunds}
	ErrIncorrectProgramID          = BuiltinError{Key: InstructionErrorIncorrectProgramID}
	ErrMissingRequiredSignature    = BuiltinError{Key: InstructionErrorMissingRequiredSignature}
	ErrAccountAlreadyInitialized   = BuiltinError{Key: InstructionErrorAccountAlreadyInitialized}
	ErrUninitializedAccount        = BuiltinError{Key: InstructionErrorUninitializedAccount}
	ErrUnbalancedInstruction       = BuiltinError{Key: InstructionErrorUnbalancedInstruction}
	ErrModifiedProgramID           = BuiltinError{Key: InstructionErrorModifiedProgramID}
	ErrExternalAccountLamportSpend = BuiltinError{Key: InstructionErrorExternalAccountLamportSpend}
	ErrExternalAccountDataModified = BuiltinError{Key: InstructionErrorExternalAccountDataModified}
	ErrReadonlyLamportChange       = BuiltinError{Key: InstructionErrorReadonlyLamportChange}
	ErrReadonlyDataModified        = BuiltinError{Key: InstructionErrorReadonlyDataModified}
	ErrExecutableModified          = BuiltinError{Key: InstructionErrorExecutableModified}
	ErrNotEnoughAccountKeys        = BuiltinError{Key: InstructionErrorNotEnoughAccountKeys}
	ErrComputationalBudgetExceeded = BuiltinError{Key: InstructionErrorComputationalBudgetExceeded}
	ErrUnsupportedProgramID        = BuiltinError{Key: InstructionErrorUnsupportedProgramID}
	ErrArithmeticOverflow          = BuiltinError{Key: InstructionErrorArithmeticOverflow}
	ErrInvalidRealloc              = BuiltinError{Key: InstructionErrorInvalidRealloc}
	ErrProgramFailedToComplete     = BuiltinError{Key: InstructionErrorProgramFailedToComplete}
)

// CustomError 程序返回的自定义错误码
type CustomError uint32

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: 0x%x", uint32(c))
}

// InstructionError 某条指令失败
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// CustomError 若失败原因为自定义错误码则返回之
func (e *InstructionError) CustomError() (CustomError, bool) {
	var ce CustomError
	if errors.As(e.Err, &ce) {
		return ce, true
	}
	return 0, false
}

// TransactionError 交易失败的原因
type TransactionError struct {
	Key          TransactionErrorKey
	Instruction  *InstructionError
	AccountIndex int // 仅 InsufficientFundsForRent 使用
}

func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{Key: key}
}

func NewInstructionError(index int, err error) *TransactionError {
	return &TransactionError{
		Key:         TransactionErrorInstructionError,
		Instruction: &InstructionError{Index: index, Err: err},
	}
}

func NewInsufficientFundsForRent(accountIndex int) *TransactionError {
	return &TransactionError{Key: TransactionErrorInsufficientFundsForRent, AccountIndex: accountIndex}
}

func (e *TransactionError) Error() string {
	switch {
	case e.Instruction != nil:
		return e.Instruction.Error()
	case e.Key == TransactionErrorInsufficientFundsForRent:
		return fmt.Sprintf("InsufficientFundsForRent { account_index: %d }", e.AccountIndex)
	default:
		return string(e.Key)
	}
}

func (e *TransactionError) Unwrap() error {
	if e.Instruction == nil {
		return nil
	}
	return e.Instruction
}
