package outcome

import (
	"regexp"
	"strconv"
	"strings"
)

type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindAccountNotFound
	ErrorKindInsufficientFunds
	ErrorKindCustom
	ErrorKindOpaque
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "None"
	case ErrorKindAccountNotFound:
		return "AccountNotFound"
	case ErrorKindInsufficientFunds:
		return "InsufficientFunds"
	case ErrorKindCustom:
		return "Custom"
	case ErrorKindOpaque:
		return "Opaque"
	default:
		return "Unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Classification 基于错误文本与日志的尽力分类，不保证完备
type Classification struct {
	Kind    ErrorKind
	Code    uint32 // 能解析出自定义错误码时填写
	HasCode bool
	Message string // 原始错误文本
}

const (
	accountNotFoundMessage = "Attempt to debit an account but found no record of a prior credit"
	programAccountNotFound = "ProgramAccountNotFound"
)

var (
	customHexPattern   = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)
	customDebugPattern = regexp.MustCompile(`Custom\((\d+)\)`)

	insufficientPatterns = []string{
		"InsufficientFunds",
		"insufficient funds",
		"insufficient lamports",
	}
)

// CustomErrorText 执行方对自定义错误码的约定文本
func CustomErrorText(code uint32) string {
	return "custom program error: 0x" + strconv.FormatUint(uint64(code), 16)
}

// Classify 按文本模式把失败归类；未识别的一律为 Opaque
func (r *Result) Classify() Classification {
	if r.IsSuccess() {
		return Classification{Kind: ErrorKindNone}
	}

	text := r.ErrorMessage()
	c := Classification{Kind: ErrorKindOpaque, Message: text}
	c.Code, c.HasCode = parseCustomCode(text)

	switch {
	case strings.Contains(text, programAccountNotFound):
		// 程序不存在不是账户缺失，保持 Opaque
	case strings.Contains(text, "AccountNotFound") || strings.Contains(text, accountNotFoundMessage):
		c.Kind = ErrorKindAccountNotFound
	case r.mentionsInsufficientFunds(text):
		c.Kind = ErrorKindInsufficientFunds
	case c.HasCode:
		c.Kind = ErrorKindCustom
	}
	return c
}

// CustomCode 自定义错误码（若能解析）
func (r *Result) CustomCode() (uint32, bool) {
	if r.IsSuccess() {
		return 0, false
	}
	return parseCustomCode(r.ErrorMessage())
}

func (r *Result) mentionsInsufficientFunds(text string) bool {
	for _, p := range insufficientPatterns {
		if strings.Contains(text, p) || r.HasLog(p) {
			return true
		}
	}
	return false
}

// hasCustomCode 文本中任一 "custom program error: 0x<hex>" 的完整十六进制值等于 code
func hasCustomCode(text string, code uint32) bool {
	for _, m := range customHexPattern.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseUint(m[1], 16, 32); err == nil && uint32(v) == code {
			return true
		}
	}
	return false
}

func parseCustomCode(text string) (uint32, bool) {
	if m := customHexPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseUint(m[1], 16, 32); err == nil {
			return uint32(v), true
		}
	}
	if m := customDebugPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseUint(m[1], 10, 32); err == nil {
			return uint32(v), true
		}
	}
	return 0, false
}
