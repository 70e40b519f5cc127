package consts

// BuiltinPrograms 模拟账本启动时预置为可执行账户的内置程序
// 包含：
// - System Program（转账、建账户等）
// - Compute Budget Program（只计费，不改变状态）
var BuiltinPrograms = []string{
	SystemProgramStr,
	ComputeBudgetProgramIdStr,
}
