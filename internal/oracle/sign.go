package oracle

import (
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"sol-harness/internal/instruction"
	"sol-harness/internal/types"
)

// SignerKeys 交易需要签名的地址集合：付款账户加上所有 IsSigner 的账户
func (tx Transaction) SignerKeys() (map[types.Pubkey]bool, error) {
	payer, err := tx.FeePayer()
	if err != nil {
		return nil, err
	}
	keys := map[types.Pubkey]bool{payer: true}
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if meta.IsSigner {
				keys[meta.Pubkey] = true
			}
		}
	}
	return keys, nil
}

// Sign 用 SDK 编译消息并签名；只使用消息需要的签名者，缺少任何一个返回 ErrMissingSigner
func Sign(tx Transaction, recentBlockhash string) (sdktypes.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return sdktypes.Transaction{}, err
	}
	required, err := tx.SignerKeys()
	if err != nil {
		return sdktypes.Transaction{}, err
	}
	payer, _ := tx.FeePayer()

	keypairs := make(map[types.Pubkey]sdktypes.Account, len(tx.Signers))
	for _, s := range tx.Signers {
		keypairs[types.PubkeyFromSDK(s.PublicKey)] = s
	}

	msg := sdktypes.NewMessage(sdktypes.NewMessageParam{
		FeePayer:        payer.ToSDK(),
		RecentBlockhash: recentBlockhash,
		Instructions:    instruction.ToSDKList(tx.Instructions),
	})

	// 签名顺序与消息中账户顺序一致
	signers := make([]sdktypes.Account, 0, len(required))
	for _, key := range msg.Accounts {
		pk := types.PubkeyFromSDK(key)
		if !required[pk] {
			continue
		}
		kp, ok := keypairs[pk]
		if !ok {
			return sdktypes.Transaction{}, fmt.Errorf("%w: %s", ErrMissingSigner, pk)
		}
		signers = append(signers, kp)
	}

	signed, err := sdktypes.NewTransaction(sdktypes.NewTransactionParam{
		Message: msg,
		Signers: signers,
	})
	if err != nil {
		return sdktypes.Transaction{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if len(signed.Signatures) == 0 {
		return sdktypes.Transaction{}, ErrNoSigners
	}
	return signed, nil
}
