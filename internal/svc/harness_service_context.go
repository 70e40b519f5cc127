package svc

import (
	"fmt"

	"sol-harness/internal/config"
	"sol-harness/internal/oracle"
	"sol-harness/internal/rpcoracle"
	"sol-harness/internal/svm"
	"sol-harness/pkg/logger"
)

// HarnessServiceContext 按配置创建好的执行方及其依赖
type HarnessServiceContext struct {
	Config config.HarnessConfig
	Oracle oracle.Oracle

	// 只在对应模式下非空
	Ledger *svm.Ledger
	Remote *rpcoracle.Oracle
}

// NewHarnessServiceContext 初始化日志并按 Oracle.Mode 创建执行方
func NewHarnessServiceContext(c config.HarnessConfig) (*HarnessServiceContext, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(c.Logger.ToLogOption()); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	ctx := &HarnessServiceContext{Config: c}
	switch c.Oracle.Mode {
	case config.OracleModeRPC:
		remote, err := rpcoracle.New(c.Oracle.Endpoint,
			rpcoracle.WithTimeout(c.Oracle.Timeout()),
			rpcoracle.WithCommitment(c.Oracle.Commitment),
		)
		if err != nil {
			logger.Errorf("RPC 执行方初始化失败: %v", err)
			return nil, err
		}
		ctx.Remote = remote
		ctx.Oracle = remote
	default:
		ledger := svm.New(
			svm.WithLamportsPerSignature(c.Ledger.LamportsPerSignature),
			svm.WithComputeUnitLimit(c.Ledger.ComputeUnitLimit),
			svm.WithSlot(c.Ledger.Slot),
		)
		if c.Ledger.FixturesFile != "" {
			if err := ledger.LoadFixtures(c.Ledger.FixturesFile); err != nil {
				logger.Errorf("加载账户 fixture 失败: %v", err)
				return nil, err
			}
		}
		ctx.Ledger = ledger
		ctx.Oracle = ledger
	}

	logger.Infof("测试执行方初始化完成, mode=%s", c.Oracle.Mode)
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *HarnessServiceContext) Close() {
	if ctx.Remote != nil {
		ctx.Remote.Close()
	}
	_ = logger.Sync()
}
