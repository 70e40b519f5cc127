package rpcoracle

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"

	"sol-harness/internal/oracle"
	"sol-harness/internal/txerror"
	"sol-harness/internal/types"
	"sol-harness/pkg/logger"
)

const (
	defaultTimeout      = 10 * time.Second
	airdropPollInterval = 500 * time.Millisecond
)

var ErrAirdropTimeout = errors.New("airdrop not confirmed before timeout")

var (
	_ oracle.Oracle        = (*Oracle)(nil)
	_ oracle.Funder        = (*Oracle)(nil)
	_ oracle.AccountReader = (*Oracle)(nil)
	_ oracle.SlotReader    = (*Oracle)(nil)
)

// Oracle 通过 JSON-RPC 节点模拟交易，用于对照真实集群或本地 test-validator
type Oracle struct {
	client     *client.Client
	timeout    time.Duration
	commitment rpc.Commitment
	ctx        context.Context
	cancel     func(err error)
}

type Option func(*Oracle)

func WithTimeout(d time.Duration) Option {
	return func(o *Oracle) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithCommitment 取值 processed / confirmed / finalized
func WithCommitment(c string) Option {
	return func(o *Oracle) {
		if c != "" {
			o.commitment = rpc.Commitment(c)
		}
	}
}

func New(endpoint string, opts ...Option) (*Oracle, error) {
	if endpoint == "" {
		return nil, errors.New("rpc endpoint is empty")
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	o := &Oracle{
		client:     client.NewClient(endpoint),
		timeout:    defaultTimeout,
		commitment: rpc.CommitmentConfirmed,
		ctx:        ctx,
		cancel:     cancel,
	}
	if o.client == nil {
		cancel(nil)
		return nil, errors.New("rpc client init failed")
	}
	for _, opt := range opts {
		opt(o)
	}
	logger.Infof("[RpcOracle] 已连接 %s, commitment=%s", endpoint, o.commitment)
	return o, nil
}

// Close 取消所有进行中的请求
func (o *Oracle) Close() {
	o.cancel(errors.New("RpcOracle closed"))
}

// Execute 签名后调用 simulateTransaction，不会真正上链
func (o *Oracle) Execute(tx oracle.Transaction) (out oracle.RawOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[RpcOracle] execute panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("execute panic: %v", r)
		}
	}()

	if err := tx.Validate(); err != nil {
		return oracle.RawOutcome{}, err
	}

	ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
	defer cancel()

	blockhash, err := o.client.GetLatestBlockhashWithConfig(ctx, client.GetLatestBlockhashConfig{
		Commitment: o.commitment,
	})
	if err != nil {
		return oracle.RawOutcome{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	signed, err := oracle.Sign(tx, blockhash.Blockhash)
	if err != nil {
		return oracle.RawOutcome{}, err
	}

	sim, err := o.client.SimulateTransaction(ctx, signed)
	if err != nil {
		return oracle.RawOutcome{}, fmt.Errorf("failed to simulate transaction: %w", err)
	}

	out = oracle.RawOutcome{
		Logs:         sim.Logs,
		ComputeUnits: computeUnits(sim.UnitConsumed, sim.Logs),
	}
	out.Err = renderError(sim.Err)
	if out.Err != nil {
		logger.Debugf("[RpcOracle] 模拟失败: %v", out.Err)
	}
	return out, nil
}

// renderError 把节点返回的 err 字段转换成 TransactionError；无法识别的格式保留原文
func renderError(raw any) error {
	if raw == nil {
		return nil
	}
	txErr, err := txerror.ParseTransactionError(raw)
	if err != nil {
		logger.Warnf("[RpcOracle] 无法解析交易错误 %v: %v", raw, err)
		return fmt.Errorf("%v", raw)
	}
	if txErr == nil {
		return nil
	}
	return txErr
}

// Airdrop 请求水龙头并等待余额到账
func (o *Oracle) Airdrop(pubkey types.Pubkey, lamports uint64) error {
	before, err := o.GetBalance(pubkey)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
	defer cancel()

	sig, err := o.client.RequestAirdrop(ctx, pubkey.String(), lamports)
	if err != nil {
		return fmt.Errorf("failed to request airdrop: %w", err)
	}
	logger.Debugf("[RpcOracle] airdrop %d lamports -> %s, sig=%s", lamports, pubkey, sig)

	ticker := time.NewTicker(airdropPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrAirdropTimeout, sig)
		case <-ticker.C:
			balance, err := o.client.GetBalanceWithConfig(ctx, pubkey.String(), client.GetBalanceConfig{
				Commitment: o.commitment,
			})
			if err != nil {
				logger.Warnf("[RpcOracle] 查询余额失败: %v", err)
				continue
			}
			if balance >= before+lamports {
				return nil
			}
		}
	}
}

func (o *Oracle) GetBalance(pubkey types.Pubkey) (uint64, error) {
	ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
	defer cancel()

	balance, err := o.client.GetBalanceWithConfig(ctx, pubkey.String(), client.GetBalanceConfig{
		Commitment: o.commitment,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func (o *Oracle) GetAccountData(pubkey types.Pubkey) ([]byte, error) {
	ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
	defer cancel()

	info, err := o.client.GetAccountInfoWithConfig(ctx, pubkey.String(), client.GetAccountInfoConfig{
		Commitment: o.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}
	if info.Lamports == 0 && len(info.Data) == 0 {
		return nil, fmt.Errorf("account %s not found", pubkey)
	}
	return info.Data, nil
}

// Slot 当前 slot；RPC 执行方不能推进 slot，所以不实现 SlotAdvancer
func (o *Oracle) Slot() (uint64, error) {
	ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
	defer cancel()

	slot, err := o.client.GetSlotWithConfig(ctx, client.GetSlotConfig{Commitment: o.commitment})
	if err != nil {
		return 0, fmt.Errorf("failed to get slot: %w", err)
	}
	return slot, nil
}
