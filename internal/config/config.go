package config

import (
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/conf"

	"sol-harness/internal/consts"
	"sol-harness/pkg/logger"
)

const (
	OracleModeMemory = "memory" // 进程内账本
	OracleModeRPC    = "rpc"    // 远程节点 simulateTransaction
)

type LogConfig struct {
	Format   string `json:",default=console,options=console|json"` // 日志格式
	LogDir   string `json:",optional"`                              // 日志目录，为空时只输出到标准输出
	Level    string `json:",default=info,options=debug|info|warn|error"`
	Compress bool   `json:",optional"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// OracleConfig 选择执行方
type OracleConfig struct {
	Mode       string `json:",default=memory,options=memory|rpc"`
	Endpoint   string `json:",optional"`                                             // rpc 模式下的节点地址
	TimeoutMs  int    `json:",default=10000"`                                        // 单次请求超时（毫秒）
	Commitment string `json:",default=confirmed,options=processed|confirmed|finalized"` // rpc 读取使用的确认级别
}

func (c OracleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// LedgerConfig 进程内账本参数
type LedgerConfig struct {
	LamportsPerSignature uint64 `json:",default=5000"`
	ComputeUnitLimit     uint64 `json:",default=200000"` // 每条指令的默认计算单元上限
	Slot                 uint64 `json:",optional"`       // 起始 slot
	FixturesFile         string `json:",optional"`       // 启动时加载的账户 YAML
}

// HarnessConfig 测试工具的主配置
type HarnessConfig struct {
	Logger LogConfig
	Oracle OracleConfig
	Ledger LedgerConfig
}

// Validate 检查跨字段约束
func (c *HarnessConfig) Validate() error {
	switch c.Oracle.Mode {
	case OracleModeMemory:
		if c.Ledger.ComputeUnitLimit == 0 || c.Ledger.ComputeUnitLimit > consts.MaxComputeUnitLimit {
			return fmt.Errorf("invalid compute unit limit: %d", c.Ledger.ComputeUnitLimit)
		}
	case OracleModeRPC:
		if c.Oracle.Endpoint == "" {
			return fmt.Errorf("oracle endpoint is required in %s mode", OracleModeRPC)
		}
	default:
		return fmt.Errorf("unknown oracle mode: %q", c.Oracle.Mode)
	}
	if c.Oracle.TimeoutMs <= 0 {
		return fmt.Errorf("invalid oracle timeout: %d", c.Oracle.TimeoutMs)
	}
	return nil
}

// Load 读取配置文件（yaml / json / toml）并校验
func Load(path string) (HarnessConfig, error) {
	var c HarnessConfig
	if err := conf.Load(path, &c); err != nil {
		return HarnessConfig{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return HarnessConfig{}, err
	}
	return c, nil
}

// Default 全部取默认值的配置
func Default() HarnessConfig {
	var c HarnessConfig
	if err := conf.FillDefault(&c); err != nil {
		// 默认值由结构体标签给出，失败说明标签写错
		panic(err)
	}
	return c
}
