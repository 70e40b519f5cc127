package consts

import "runtime"

const (
	LamportsPerSol uint64 = 1_000_000_000

	// 每个签名收取的手续费
	DefaultLamportsPerSignature uint64 = 5000

	// 单条指令默认计算单元上限，以及整笔交易的最大上限
	DefaultComputeUnitLimit uint64 = 200_000
	MaxComputeUnitLimit     uint64 = 1_400_000

	// 租金豁免参数：(账户头 128 字节 + 数据长度) * 每字节每年租金 * 豁免年数
	AccountStorageOverhead      uint64 = 128
	RentLamportsPerByteYear     uint64 = 3480
	RentExemptionThresholdYears uint64 = 2
	MaxPermittedDataLength      uint64 = 10 * 1024 * 1024
	BuiltinProgramComputeUnits  uint64 = 150
)

// CpuCount 表示逻辑 CPU 核心数，用于控制并发任务调度上限
var CpuCount = runtime.NumCPU()

// RentExemptMinimum 返回指定数据长度的账户免租所需最低余额
func RentExemptMinimum(dataLen int) uint64 {
	return (AccountStorageOverhead + uint64(dataLen)) * RentLamportsPerByteYear * RentExemptionThresholdYears
}
