package svm

import (
	"bytes"
	"crypto/ed25519"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	"sol-harness/internal/consts"
	"sol-harness/internal/instruction"
	"sol-harness/internal/oracle"
	"sol-harness/internal/txerror"
	"sol-harness/internal/types"
	"sol-harness/pkg/logger"
)

// Execute 执行并提交交易；指令失败时只扣手续费，其余状态回滚
func (l *Ledger) Execute(tx oracle.Transaction) (oracle.RawOutcome, error) {
	return l.process(tx, true)
}

// Simulate 执行但不提交任何状态，也不记录签名
func (l *Ledger) Simulate(tx oracle.Transaction) (oracle.RawOutcome, error) {
	return l.process(tx, false)
}

// compiledTx 编译并签名后的交易
type compiledTx struct {
	sdk       sdktypes.Transaction
	signature string
	payer     types.Pubkey
	keys      []types.Pubkey
	signers   map[types.Pubkey]bool
	writable  map[types.Pubkey]bool
}

func (l *Ledger) process(tx oracle.Transaction, commit bool) (oracle.RawOutcome, error) {
	if err := tx.Validate(); err != nil {
		return oracle.RawOutcome{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ct, err := l.compile(tx)
	if err != nil {
		return oracle.RawOutcome{}, err
	}

	if !verifySignatures(ct.sdk) {
		return failed(txerror.NewTransactionError(txerror.TransactionErrorSignatureFailure)), nil
	}
	if commit {
		if _, ok := l.processed[ct.signature]; ok {
			return failed(txerror.NewTransactionError(txerror.TransactionErrorAlreadyProcessed)), nil
		}
	}

	payer, ok := l.accounts[ct.payer]
	if !ok || payer.Lamports == 0 {
		return failed(txerror.NewTransactionError(txerror.TransactionErrorAccountNotFound)), nil
	}
	fee := l.lamportsPerSignature * uint64(len(ct.sdk.Signatures))
	if payer.Lamports < fee {
		return failed(txerror.NewTransactionError(txerror.TransactionErrorInsufficientFundsForFee)), nil
	}
	for _, ix := range tx.Instructions {
		if _, ok := l.programs[ix.ProgramID]; !ok {
			return failed(txerror.NewTransactionError(txerror.TransactionErrorProgramAccountNotFound)), nil
		}
	}

	// 扣费后的状态，指令失败时只提交这一部分
	feeState := map[types.Pubkey]Account{ct.payer: payer.Clone()}
	paid := feeState[ct.payer]
	paid.Lamports -= fee
	feeState[ct.payer] = paid

	working := make(map[types.Pubkey]*Account, len(ct.keys))
	for _, key := range ct.keys {
		acc := l.loadAccount(key)
		if key == ct.payer {
			acc = paid.Clone()
		}
		working[key] = &acc
	}

	meter := &computeMeter{limit: l.transactionBudget(len(tx.Instructions))}
	logs := &logCollector{}
	var txErr error
	for i, ix := range tx.Instructions {
		if err := l.invoke(i, ix, ct, working, meter, logs); err != nil {
			txErr = txerror.NewInstructionError(i, err)
			break
		}
	}
	if txErr == nil {
		txErr = l.checkRent(ct, feeState, working)
	}

	out := oracle.RawOutcome{
		Logs:              logs.lines,
		Err:               txErr,
		ComputeUnits:      meter.consumed,
		InnerInstructions: logs.inner,
	}
	if !commit {
		return out, nil
	}

	if txErr != nil {
		l.apply(feeState)
		logger.Debugf("[svm] transaction %s failed: %v", ct.signature, txErr)
	} else {
		final := make(map[types.Pubkey]Account, len(working))
		for key, acc := range working {
			final[key] = *acc
		}
		l.apply(final)
		logger.Debugf("[svm] transaction %s succeeded, %d compute units", ct.signature, meter.consumed)
	}
	l.processed[ct.signature] = struct{}{}
	return out, nil
}

func failed(err error) oracle.RawOutcome {
	return oracle.RawOutcome{Err: err}
}

// compile 用 SDK 编译消息并签名，同时合并各账户的签名/可写标记
func (l *Ledger) compile(tx oracle.Transaction) (*compiledTx, error) {
	sdkTx, err := oracle.Sign(tx, l.blockhash.String())
	if err != nil {
		return nil, err
	}
	payer, _ := tx.FeePayer()

	c := &compiledTx{
		sdk:       sdkTx,
		signature: base58.Encode(sdkTx.Signatures[0]),
		payer:     payer,
		signers:   map[types.Pubkey]bool{payer: true},
		writable:  map[types.Pubkey]bool{payer: true},
	}
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			c.signers[meta.Pubkey] = c.signers[meta.Pubkey] || meta.IsSigner
			c.writable[meta.Pubkey] = c.writable[meta.Pubkey] || meta.IsWritable
		}
	}
	for _, key := range sdkTx.Message.Accounts {
		c.keys = append(c.keys, types.PubkeyFromSDK(key))
	}
	return c, nil
}

func verifySignatures(tx sdktypes.Transaction) bool {
	msg, err := tx.Message.Serialize()
	if err != nil {
		return false
	}
	if len(tx.Signatures) > len(tx.Message.Accounts) {
		return false
	}
	for i, sig := range tx.Signatures {
		key := tx.Message.Accounts[i]
		if !ed25519.Verify(ed25519.PublicKey(key[:]), msg, sig) {
			return false
		}
	}
	return true
}

func (l *Ledger) loadAccount(key types.Pubkey) Account {
	if acc, ok := l.accounts[key]; ok {
		return acc.Clone()
	}
	return NewSystemAccount(0)
}

func (l *Ledger) transactionBudget(instructions int) uint64 {
	budget := l.computeUnitLimit * uint64(instructions)
	if budget > consts.MaxComputeUnitLimit {
		return consts.MaxComputeUnitLimit
	}
	return budget
}

func (l *Ledger) isBuiltin(id types.Pubkey) bool {
	_, ok := l.builtins[id]
	return ok
}

// invoke 执行单条指令并校验账户变更
func (l *Ledger) invoke(index int, ix instruction.Instruction, c *compiledTx, working map[types.Pubkey]*Account,
	meter *computeMeter, logs *logCollector) (err error) {
	logs.addf("Program %s invoke [1]", ix.ProgramID)

	infos := make([]*AccountInfo, 0, len(ix.Accounts))
	pre := make(map[types.Pubkey]Account, len(ix.Accounts))
	for _, meta := range ix.Accounts {
		acc := working[meta.Pubkey]
		if _, ok := pre[meta.Pubkey]; !ok {
			pre[meta.Pubkey] = acc.Clone()
		}
		infos = append(infos, &AccountInfo{
			Key:        meta.Pubkey,
			IsSigner:   c.signers[meta.Pubkey],
			IsWritable: c.writable[meta.Pubkey],
			Account:    acc,
		})
	}

	start := meter.consumed
	available := meter.remaining()
	defer func() {
		if !l.isBuiltin(ix.ProgramID) {
			logs.addf("Program %s consumed %d of %d compute units", ix.ProgramID, meter.consumed-start, available)
		}
		if err != nil {
			logs.addf("Program %s failed: %v", ix.ProgramID, err)
		} else {
			logs.addf("Program %s success", ix.ProgramID)
		}
	}()

	ctx := &InvokeContext{
		programID: ix.ProgramID,
		index:     index,
		accounts:  infos,
		logs:      logs,
		meter:     meter,
		slot:      l.slot,
	}
	if err = runProcessor(l.programs[ix.ProgramID], ctx, ix.Data); err != nil {
		return err
	}
	return verifyChanges(ix.ProgramID, pre, infos)
}

func runProcessor(p Processor, ctx *InvokeContext, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx.Log("panicked: %v", r)
			err = txerror.ErrProgramFailedToComplete
		}
	}()
	return p.Process(ctx, data)
}

// verifyChanges 指令执行后的账户规则校验
func verifyChanges(programID types.Pubkey, pre map[types.Pubkey]Account, infos []*AccountInfo) error {
	var preTotal, postTotal uint64
	seen := make(map[types.Pubkey]bool, len(pre))
	for _, info := range infos {
		if seen[info.Key] {
			continue
		}
		seen[info.Key] = true

		before := pre[info.Key]
		after := info.Account
		owned := before.Owner == programID
		dataChanged := !bytes.Equal(before.Data, after.Data)

		if !info.IsWritable {
			if before.Lamports != after.Lamports {
				return txerror.ErrReadonlyLamportChange
			}
			if dataChanged {
				return txerror.ErrReadonlyDataModified
			}
			if before.Owner != after.Owner {
				return txerror.ErrModifiedProgramID
			}
		}
		if after.Lamports < before.Lamports && !owned {
			return txerror.ErrExternalAccountLamportSpend
		}
		if dataChanged && !owned {
			return txerror.ErrExternalAccountDataModified
		}
		if before.Owner != after.Owner && (!owned || before.Executable) {
			return txerror.ErrModifiedProgramID
		}
		if before.Executable != after.Executable {
			return txerror.ErrExecutableModified
		}

		preTotal += before.Lamports
		postTotal += after.Lamports
	}
	if preTotal != postTotal {
		return txerror.ErrUnbalancedInstruction
	}
	return nil
}

// checkRent 交易结束后可写账户不能从免租/未初始化变为欠租，欠租账户不能增加余额或改变大小
func (l *Ledger) checkRent(c *compiledTx, feeState map[types.Pubkey]Account, working map[types.Pubkey]*Account) error {
	for i, key := range c.keys {
		if !c.writable[key] {
			continue
		}
		before, ok := feeState[key]
		if !ok {
			before = l.loadAccount(key)
		}
		after := *working[key]
		if after.rentState() != rentPaying {
			continue
		}
		if before.rentState() == rentPaying &&
			len(before.Data) == len(after.Data) &&
			after.Lamports <= before.Lamports {
			continue
		}
		return txerror.NewInsufficientFundsForRent(i)
	}
	return nil
}

// apply 提交状态，余额为 0 的账户被回收
func (l *Ledger) apply(state map[types.Pubkey]Account) {
	for key, acc := range state {
		if acc.Lamports == 0 {
			delete(l.accounts, key)
			continue
		}
		l.accounts[key] = acc
	}
}
