package outcome

import (
	"regexp"
	"strconv"
)

// AnchorError 从程序日志中解析出的 Anchor 错误
type AnchorError struct {
	Code    string
	Number  uint32
	Message string
	Account string // "caused by account" 时填写
}

var (
	anchorErrorPattern   = regexp.MustCompile(`AnchorError.*?Error Code: (\w+)\. Error Number: (\d+)\. Error Message: (.*?)\.?$`)
	anchorAccountPattern = regexp.MustCompile(`AnchorError caused by account: (\w+)\.`)
)

// AnchorError 返回第一条 Anchor 错误日志的解析结果
func (r *Result) AnchorError() (AnchorError, bool) {
	for _, l := range r.logs {
		m := anchorErrorPattern.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		num, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			continue
		}
		ae := AnchorError{Code: m[1], Number: uint32(num), Message: m[3]}
		if am := anchorAccountPattern.FindStringSubmatch(l); am != nil {
			ae.Account = am[1]
		}
		return ae, true
	}
	return AnchorError{}, false
}
