package harness

import (
	"errors"
	"fmt"

	"sol-harness/internal/discriminator"
	"sol-harness/internal/layout"
	"sol-harness/internal/oracle"
	"sol-harness/internal/types"
)

var (
	ErrAccountDiscriminator = errors.New("account discriminator mismatch")
	ErrAccountDataTooShort  = errors.New("account data shorter than discriminator")
)

// GetAnchorAccount 读取账户数据，校验 account:<name> 前缀后解码到 dst
func GetAnchorAccount(o oracle.Oracle, pubkey types.Pubkey, name string, dst any) error {
	reader, ok := o.(oracle.AccountReader)
	if !ok {
		return fmt.Errorf("%w: account data on %T", ErrUnsupported, o)
	}

	data, err := reader.GetAccountData(pubkey)
	if err != nil {
		return err
	}
	if err := DecodeAnchorAccount(data, name, dst); err != nil {
		return fmt.Errorf("account %s: %w", pubkey, err)
	}
	return nil
}

// DecodeAnchorAccount 校验账户判别符并解码剩余字节
func DecodeAnchorAccount(data []byte, name string, dst any) error {
	if len(data) < discriminator.Size {
		return fmt.Errorf("%w: %d bytes", ErrAccountDataTooShort, len(data))
	}
	want := discriminator.Account(name)
	if !want.Matches(data) {
		return fmt.Errorf("%w: want %s (%s), got %x", ErrAccountDiscriminator, want, name, data[:discriminator.Size])
	}
	return layout.Unmarshal(data[discriminator.Size:], dst)
}

// DecodeAccountUnchecked 跳过判别符校验，只去掉前 8 字节
func DecodeAccountUnchecked(data []byte, dst any) error {
	if len(data) < discriminator.Size {
		return fmt.Errorf("%w: %d bytes", ErrAccountDataTooShort, len(data))
	}
	return layout.Unmarshal(data[discriminator.Size:], dst)
}
