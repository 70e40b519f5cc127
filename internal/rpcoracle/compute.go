package rpcoracle

import (
	"regexp"
	"strconv"

	"sol-harness/internal/types"
)

var (
	// "Program <id> invoke [<depth>]"
	invokeRe = regexp.MustCompile(`^Program (\S+) invoke \[(\d+)\]$`)
	// "Program <id> consumed <n> of <m> compute units"
	consumedRe = regexp.MustCompile(`^Program (\S+) consumed (\d+) of \d+ compute units$`)
	// "Program <id> success" / "Program <id> failed: ..."
	exitRe = regexp.MustCompile(`^Program (\S+) (?:success$|failed: )`)
)

// computeUnits 优先使用节点返回的 unitsConsumed，缺失时从日志推算
func computeUnits(unitsConsumed *uint64, logs []string) uint64 {
	if unitsConsumed != nil {
		return *unitsConsumed
	}
	return SumComputeUnits(logs)
}

// SumComputeUnits 累加顶层指令（invoke [1]）的消耗；CPI 的消耗已计入外层，不重复累加
func SumComputeUnits(logs []string) uint64 {
	var (
		total uint64
		stack []string
	)
	for _, line := range logs {
		if m := invokeRe.FindStringSubmatch(line); m != nil {
			if !isProgramID(m[1]) {
				continue
			}
			depth, err := strconv.Atoi(m[2])
			if err != nil || depth < 1 {
				continue
			}
			// 日志被截断时以 depth 为准
			if depth-1 < len(stack) {
				stack = stack[:depth-1]
			}
			stack = append(stack, m[1])
			continue
		}
		if m := consumedRe.FindStringSubmatch(line); m != nil {
			if len(stack) != 1 || stack[0] != m[1] {
				continue
			}
			n, err := strconv.ParseUint(m[2], 10, 64)
			if err != nil {
				continue
			}
			total += n
			continue
		}
		if m := exitRe.FindStringSubmatch(line); m != nil {
			if len(stack) > 0 && stack[len(stack)-1] == m[1] {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return total
}

func isProgramID(s string) bool {
	_, err := types.TryPubkeyFromBase58(s)
	return err == nil
}
