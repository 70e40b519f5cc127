package harness

import (
	"encoding/base64"
	"fmt"
	"strings"

	"sol-harness/internal/discriminator"
	"sol-harness/internal/layout"
	"sol-harness/internal/outcome"
)

const programDataPrefix = "Program data: "

// EventPayloads 返回日志中所有 "Program data:" 行里以 event:<name> 判别符开头的数据（已去掉判别符）
func EventPayloads(r *outcome.Result, name string) ([][]byte, error) {
	disc := discriminator.Event(name)

	var payloads [][]byte
	for _, line := range r.Logs() {
		if !strings.HasPrefix(line, programDataPrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, programDataPrefix))
		if len(fields) == 0 {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid program data %q: %w", fields[0], err)
		}
		if !disc.Matches(data) {
			continue
		}
		payloads = append(payloads, data[discriminator.Size:])
	}
	return payloads, nil
}

// CPIEventPayloads 返回 self-CPI 记录的指定事件数据（已去掉 EventCPI 前缀与事件判别符）
func CPIEventPayloads(r *outcome.Result, name string) [][]byte {
	disc := discriminator.Event(name)

	var payloads [][]byte
	for _, inner := range r.InnerInstructions() {
		data := inner.Data
		if !discriminator.EventCPI.Matches(data) {
			continue
		}
		data = data[discriminator.Size:]
		if !disc.Matches(data) {
			continue
		}
		payloads = append(payloads, data[discriminator.Size:])
	}
	return payloads
}

// allEventPayloads 先日志事件，后 self-CPI 事件
func allEventPayloads(r *outcome.Result, name string) ([][]byte, error) {
	payloads, err := EventPayloads(r, name)
	if err != nil {
		return nil, err
	}
	return append(payloads, CPIEventPayloads(r, name)...), nil
}

// ParseEvents 解码指定事件：先按日志顺序解码 "Program data:" 事件，再解码 self-CPI 事件
func ParseEvents[T any](r *outcome.Result, name string) ([]T, error) {
	payloads, err := allEventPayloads(r, name)
	if err != nil {
		return nil, err
	}

	events := make([]T, 0, len(payloads))
	for i, payload := range payloads {
		var ev T
		if err := layout.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode event %s #%d: %w", name, i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// HasEvent 日志或 self-CPI 中是否出现过指定事件
func HasEvent(r *outcome.Result, name string) bool {
	if len(CPIEventPayloads(r, name)) > 0 {
		return true
	}
	payloads, err := EventPayloads(r, name)
	return err == nil && len(payloads) > 0
}
