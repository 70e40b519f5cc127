package harness

import (
	"errors"
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"sol-harness/internal/oracle"
	"sol-harness/internal/pda"
	"sol-harness/internal/types"
)

var ErrUnsupported = errors.New("oracle does not support this operation")

// CreateFundedAccount 生成新密钥对并注资
func CreateFundedAccount(o oracle.Oracle, lamports uint64) (sdktypes.Account, error) {
	funder, ok := o.(oracle.Funder)
	if !ok {
		return sdktypes.Account{}, fmt.Errorf("%w: airdrop on %T", ErrUnsupported, o)
	}

	kp := sdktypes.NewAccount()
	if err := funder.Airdrop(types.PubkeyFromSDK(kp.PublicKey), lamports); err != nil {
		return sdktypes.Account{}, fmt.Errorf("failed to airdrop: %w", err)
	}
	return kp, nil
}

func CreateFundedAccounts(o oracle.Oracle, count int, lamports uint64) ([]sdktypes.Account, error) {
	accounts := make([]sdktypes.Account, 0, count)
	for i := 0; i < count; i++ {
		kp, err := CreateFundedAccount(o, lamports)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, kp)
	}
	return accounts, nil
}

// GetPDA 只需要地址时使用
func GetPDA(seeds [][]byte, programID types.Pubkey) (types.Pubkey, error) {
	return pda.FindAddress(seeds, programID)
}

func GetPDAWithBump(seeds [][]byte, programID types.Pubkey) (types.Pubkey, uint8, error) {
	return pda.FindProgramAddress(seeds, programID)
}

func Balance(o oracle.Oracle, pubkey types.Pubkey) (uint64, error) {
	reader, ok := o.(oracle.AccountReader)
	if !ok {
		return 0, fmt.Errorf("%w: balance on %T", ErrUnsupported, o)
	}
	return reader.GetBalance(pubkey)
}

func CurrentSlot(o oracle.Oracle) (uint64, error) {
	switch v := o.(type) {
	case oracle.SlotAdvancer:
		return v.CurrentSlot(), nil
	case oracle.SlotReader:
		return v.Slot()
	default:
		return 0, fmt.Errorf("%w: slot on %T", ErrUnsupported, o)
	}
}

func AdvanceSlot(o oracle.Oracle, slots uint64) error {
	advancer, ok := o.(oracle.SlotAdvancer)
	if !ok {
		return fmt.Errorf("%w: advance slot on %T", ErrUnsupported, o)
	}
	advancer.AdvanceSlot(slots)
	return nil
}
