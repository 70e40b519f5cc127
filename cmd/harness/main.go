package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/blocto/solana-go-sdk/program/system"

	"sol-harness/internal/config"
	"sol-harness/internal/consts"
	"sol-harness/internal/discriminator"
	"sol-harness/internal/harness"
	"sol-harness/internal/instruction"
	"sol-harness/internal/pda"
	"sol-harness/internal/svc"
	"sol-harness/internal/types"
	"sol-harness/pkg/logger"
)

const usage = `usage:
  harness [-f etc/harness.yaml] check
  harness pda <program-id> <seed>...        种子格式 str:xxx | pk:<base58> | hex:xxxx
  harness discriminator <namespace> <name>
`

var configFile = flag.String("f", "", "the config file, defaults are used when empty")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			os.Exit(2)
		}
	}()

	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "check":
		err = runCheck()
	case "pda":
		err = runPDA(args[1:])
	case "discriminator":
		err = runDiscriminator(args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.HarnessConfig, error) {
	if *configFile == "" {
		return config.Default(), nil
	}
	return config.Load(*configFile)
}

// runCheck 对配置的执行方做一次注资加转账的冒烟测试
func runCheck() error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, err := svc.NewHarnessServiceContext(c)
	if err != nil {
		return err
	}
	defer ctx.Close()

	sender, err := harness.CreateFundedAccount(ctx.Oracle, consts.LamportsPerSol)
	if err != nil {
		return err
	}
	ix := instruction.FromSDK(system.Transfer(system.TransferParam{
		From:   sender.PublicKey,
		To:     types.NewUniquePubkey().ToSDK(),
		Amount: consts.LamportsPerSol / 10,
	}))
	res, err := harness.Send(ctx.Oracle, ix, sender)
	if err != nil {
		return err
	}
	res.PrintLogs()
	if !res.IsSuccess() {
		return fmt.Errorf("check failed: %w", res.Err())
	}
	return nil
}

func runPDA(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("missing program id")
	}
	programID, err := types.TryPubkeyFromBase58(args[0])
	if err != nil {
		return err
	}
	seeds := make([][]byte, 0, len(args)-1)
	for _, arg := range args[1:] {
		seed, err := parseSeed(arg)
		if err != nil {
			return err
		}
		seeds = append(seeds, seed)
	}
	addr, bump, err := pda.FindProgramAddress(seeds, programID)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d\n", addr, bump)
	return nil
}

func parseSeed(arg string) ([]byte, error) {
	kind, value, ok := strings.Cut(arg, ":")
	if !ok {
		return []byte(arg), nil
	}
	switch kind {
	case "str":
		return []byte(value), nil
	case "pk":
		pk, err := types.TryPubkeyFromBase58(value)
		if err != nil {
			return nil, err
		}
		return pk.Bytes(), nil
	case "hex":
		return hex.DecodeString(value)
	default:
		return []byte(arg), nil
	}
}

func runDiscriminator(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected <namespace> <name>")
	}
	d := discriminator.Compute(args[0], args[1])
	fmt.Printf("%s %v %d\n", d, d.Bytes(), d.Uint64())
	return nil
}
