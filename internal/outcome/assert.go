package outcome

import (
	"fmt"
	"strings"

	"github.com/stretchr/testify/require"
)

type tHelper interface {
	Helper()
}

func (r *Result) fail(t require.TestingT, format string, args ...any) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.FailNow(t, fmt.Sprintf(format, args...))
}

// AssertSuccess 失败时立即终止测试，消息包含错误与完整日志
func (r *Result) AssertSuccess(t require.TestingT) *Result {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !r.IsSuccess() {
		r.fail(t, "Transaction failed: %s\nLogs:\n%s", r.ErrorMessage(), r.joinedLogs())
	}
	return r
}

func (r *Result) AssertFailure(t require.TestingT) *Result {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if r.IsSuccess() {
		r.fail(t, "Expected transaction to fail, but it succeeded.\nLogs:\n%s", r.joinedLogs())
	}
	return r
}

// AssertError 要求失败且错误文本包含 substr
func (r *Result) AssertError(t require.TestingT, substr string) *Result {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if r.IsSuccess() {
		r.fail(t, "Expected transaction to fail with error containing '%s', but it succeeded.\nLogs:\n%s",
			substr, r.joinedLogs())
		return r
	}
	if msg := r.ErrorMessage(); !strings.Contains(msg, substr) {
		r.fail(t, "Transaction failed with unexpected error.\nExpected substring: %s\nActual error: %s\nLogs:\n%s",
			substr, msg, r.joinedLogs())
	}
	return r
}

// AssertErrorCode 要求错误文本中的 "custom program error: 0x<hex>" 恰好等于 code，前缀相同不算
func (r *Result) AssertErrorCode(t require.TestingT, code uint32) *Result {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	expected := CustomErrorText(code)
	if r.IsSuccess() {
		r.fail(t, "Expected transaction to fail with error containing '%s', but it succeeded.\nLogs:\n%s",
			expected, r.joinedLogs())
		return r
	}
	msg := r.ErrorMessage()
	if !hasCustomCode(msg, code) {
		r.fail(t, "Transaction failed with unexpected error.\nExpected substring: %s\nActual error: %s\nLogs:\n%s",
			expected, msg, r.joinedLogs())
	}
	return r
}

// AssertAnchorError 要求失败，且错误名出现在日志或错误文本中
func (r *Result) AssertAnchorError(t require.TestingT, name string) *Result {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	r.AssertFailure(t)
	if r.IsSuccess() {
		return r
	}
	if !r.HasLog(name) && !strings.Contains(r.ErrorMessage(), name) {
		r.fail(t, "Expected Anchor error '%s' not found in transaction logs or error message.\nError: %s\nLogs:\n%s",
			name, r.ErrorMessage(), r.joinedLogs())
	}
	return r
}

// AssertLogError 只检查日志
func (r *Result) AssertLogError(t require.TestingT, msg string) *Result {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !r.HasLog(msg) {
		r.fail(t, "Expected error message '%s' not found in logs.\nLogs:\n%s", msg, r.joinedLogs())
	}
	return r
}

// AssertErrorKind 要求分类结果为 kind
func (r *Result) AssertErrorKind(t require.TestingT, kind ErrorKind) *Result {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if got := r.Classify(); got.Kind != kind {
		r.fail(t, "Expected error kind %s, got %s.\nError: %s\nLogs:\n%s",
			kind, got.Kind, r.ErrorMessage(), r.joinedLogs())
	}
	return r
}
