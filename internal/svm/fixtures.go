package svm

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"sol-harness/internal/consts"
	"sol-harness/internal/types"
	"sol-harness/pkg/logger"
)

// AccountFixture YAML 中的一个账户，data 为 base64
type AccountFixture struct {
	Pubkey     types.Pubkey  `yaml:"pubkey"`
	Lamports   uint64        `yaml:"lamports"`
	Owner      *types.Pubkey `yaml:"owner"`
	Data       string        `yaml:"data"`
	Executable bool          `yaml:"executable"`
}

// Fixtures 预置账户集合
//
//	accounts:
//	  - pubkey: 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin
//	    lamports: 1000000000
//	    owner: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
//	    data: AAECAw==
type Fixtures struct {
	Accounts []AccountFixture `yaml:"accounts"`
}

// LoadFixtures 从文件加载并写入账本
func (l *Ledger) LoadFixtures(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open fixtures %s: %w", path, err)
	}
	defer f.Close()

	if err := l.ApplyFixtures(f); err != nil {
		return fmt.Errorf("failed to apply fixtures %s: %w", path, err)
	}
	return nil
}

// ApplyFixtures 解析 YAML 并写入账本，任一条目非法则整体不生效
func (l *Ledger) ApplyFixtures(r io.Reader) error {
	fixtures, err := ParseFixtures(r)
	if err != nil {
		return err
	}

	accounts := make(map[types.Pubkey]Account, len(fixtures.Accounts))
	for i, fx := range fixtures.Accounts {
		if fx.Pubkey.IsZero() {
			return fmt.Errorf("fixture %d: missing pubkey", i)
		}
		acc, err := fx.toAccount()
		if err != nil {
			return fmt.Errorf("fixture %d (%s): %w", i, fx.Pubkey, err)
		}
		accounts[fx.Pubkey] = acc
	}

	for key, acc := range accounts {
		l.SetAccount(key, acc)
	}
	logger.Infof("[svm] loaded %d fixture accounts", len(accounts))
	return nil
}

// ParseFixtures 严格解析，不认识的字段报错
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fixtures Fixtures
	if err := dec.Decode(&fixtures); err != nil {
		if errors.Is(err, io.EOF) {
			return &fixtures, nil
		}
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	return &fixtures, nil
}

func (fx AccountFixture) toAccount() (Account, error) {
	acc := Account{
		Lamports:   fx.Lamports,
		Owner:      consts.SystemProgram,
		Executable: fx.Executable,
	}
	if fx.Owner != nil {
		acc.Owner = *fx.Owner
	}
	if fx.Data != "" {
		data, err := base64.StdEncoding.DecodeString(fx.Data)
		if err != nil {
			return Account{}, fmt.Errorf("invalid base64 data: %w", err)
		}
		acc.Data = data
	}
	return acc, nil
}
