package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	logger "github.com/ElrondNetwork/elrond-go-logger"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/urfave/cli"

	"github.com/bitfsorg/lottery-go/chain"
	"github.com/bitfsorg/lottery-go/config"
	"github.com/bitfsorg/lottery-go/host"
	"github.com/bitfsorg/lottery-go/lottery"
	"github.com/bitfsorg/lottery-go/network"
)

const (
	devAccountCount = 10
	devAccountFunds = 100 * lottery.Coin

	lotteryDBName  = "lottery.db"
	accountsDBName = "accounts.db"
	onchainDBName  = "onchain.db"
)

var errDevOnly = errors.New("command is only available on the development chain (drop --onchain)")

// backend executes contract calls for the CLI. host.Runtime is the
// development chain; chainBackend settles on a node.
type backend interface {
	Contract() *lottery.Contract
	Enter(ctx context.Context, from lottery.Identity, value uint64) error
	PickWinner(ctx context.Context, from lottery.Identity) (*lottery.Resolution, error)
}

// chainBackend calls the contract directly. Entry values are deposited to
// the pool address out of band; the payer spends them at pick time and a
// pool that cannot cover the payout fails the round without changing it.
type chainBackend struct {
	con *lottery.Contract
}

func (b *chainBackend) Contract() *lottery.Contract { return b.con }

func (b *chainBackend) Enter(ctx context.Context, from lottery.Identity, value uint64) error {
	if b.con == nil {
		return host.ErrNotDeployed
	}
	return b.con.Enter(ctx, lottery.Call{Caller: from, Value: value})
}

func (b *chainBackend) PickWinner(ctx context.Context, from lottery.Identity) (*lottery.Resolution, error) {
	if b.con == nil {
		return nil, host.ErrNotDeployed
	}
	return b.con.PickWinner(ctx, from)
}

// session is one CLI invocation's view of the persistent lottery.
type session struct {
	cfg     config.Config
	cfgPath string
	store   *lottery.BoltStore
	devs    []host.DevAccount
	logFile *os.File
	be      backend

	// development chain
	accounts *host.BoltAccounts
	rt       *host.Runtime

	// on-chain settlement
	onchain bool
	client  network.BlockchainService
	entropy *chain.HeaderEntropy
	payer   *chain.Payer
}

// loadConfig resolves the config file from the global flags. A missing
// file yields the defaults.
func loadConfig(c *cli.Context) (config.Config, string, error) {
	dataDir := c.GlobalString("datadir")
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}
	path := c.GlobalString("config")
	if path == "" {
		path = config.ConfigPath(dataDir)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return cfg, path, err
	}
	if err != nil || c.GlobalIsSet("datadir") {
		cfg.DataDir = dataDir
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return cfg, path, err
	}
	return cfg, path, nil
}

// rpcConfig layers the global RPC flags over the environment and the
// configured [rpc] section.
func rpcConfig(c *cli.Context, cfg config.Config) (*network.RPCConfig, error) {
	flags := cfg.RPC
	if v := c.GlobalString("rpc-url"); v != "" {
		flags.URL = v
	}
	if v := c.GlobalString("rpc-user"); v != "" {
		flags.User = v
	}
	if v := c.GlobalString("rpc-pass"); v != "" {
		flags.Password = v
	}
	return network.ResolveConfig(&flags, rpcEnv(), cfg.Network)
}

func rpcEnv() map[string]string {
	env := make(map[string]string)
	for _, k := range []string{network.EnvRPCURL, network.EnvRPCUser, network.EnvRPCPass} {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	return env
}

func setupLogging(cfg config.Config) (*os.File, error) {
	if err := logger.SetLogLevel(cfg.LogLevelPattern()); err != nil {
		return nil, fmt.Errorf("set log level: %w", err)
	}
	if cfg.LogFile == "" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if err := logger.AddLogObserver(f, &logger.PlainFormatter{}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("add log observer: %w", err)
	}
	return f, nil
}

// openSession opens the stores in the data directory and attaches to the
// deployed contract, if there is one.
func openSession(c *cli.Context) (*session, error) {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, cfgPath: path, onchain: c.GlobalBool("onchain")}
	if s.logFile, err = setupLogging(cfg); err != nil {
		return nil, err
	}
	if s.devs, err = host.DevAccounts(cfg.Mnemonic, devAccountCount); err != nil {
		s.Close()
		return nil, err
	}

	if s.onchain {
		err = s.openChain(c)
	} else {
		err = s.openDev()
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) openDev() error {
	var err error
	if s.store, err = lottery.OpenBoltStore(filepath.Join(s.cfg.DataDir, lotteryDBName)); err != nil {
		return err
	}
	if s.accounts, err = host.OpenBoltAccounts(filepath.Join(s.cfg.DataDir, accountsDBName)); err != nil {
		return err
	}
	s.rt = host.New(host.WithAccounts(s.accounts), host.WithCallFee(s.cfg.CallFee))
	s.be = s.rt

	_, err = s.rt.Attach(context.Background(), s.store)
	if err != nil && !errors.Is(err, host.ErrNotDeployed) {
		return err
	}
	return nil
}

func (s *session) openChain(c *cli.Context) error {
	rpcCfg, err := rpcConfig(c, s.cfg)
	if err != nil {
		return err
	}
	s.client = network.NewRPCClient(*rpcCfg)
	if s.entropy, err = chain.NewHeaderEntropy(s.client, nil); err != nil {
		return err
	}
	if s.store, err = lottery.OpenBoltStore(filepath.Join(s.cfg.DataDir, onchainDBName)); err != nil {
		return err
	}
	cb := &chainBackend{}
	s.be = cb

	var manager lottery.Identity
	err = s.store.View(func(st *lottery.State) error {
		manager = st.Manager
		return nil
	})
	if err != nil || manager.IsZero() {
		return err
	}
	key, err := s.devKey(manager)
	if err != nil {
		return err
	}
	cb.con, err = s.deployChain(context.Background(), manager, key)
	return err
}

// deployChain deploys or reattaches the on-chain contract. The pool is the
// manager's key, so its identity doubles as the contract address.
func (s *session) deployChain(ctx context.Context, manager lottery.Identity, key *ec.PrivateKey, opts ...lottery.Option) (*lottery.Contract, error) {
	payer, err := chain.NewPayer(s.client, key, s.cfg.FeeRate, s.cfg.Mainnet())
	if err != nil {
		return nil, err
	}
	s.payer = payer
	opts = append(opts,
		lottery.WithAddress(payer.Pool()),
		lottery.WithEntropy(s.entropy),
		lottery.WithPayer(payer))
	con, err := lottery.Deploy(ctx, s.store, manager, opts...)
	if err != nil {
		return nil, err
	}
	if con.Address() != payer.Pool() {
		return nil, fmt.Errorf("contract %s is not paid from pool %s", s.addr(con.Address()), s.addr(payer.Pool()))
	}
	return con, nil
}

// devKey returns the signing key of the dev account holding id.
func (s *session) devKey(id lottery.Identity) (*ec.PrivateKey, error) {
	for _, d := range s.devs {
		if d.Identity == id {
			return d.PrivateKey, nil
		}
	}
	return nil, fmt.Errorf("no key for manager %s in the configured mnemonic", s.addr(id))
}

// Close releases the stores and the log file.
func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.accounts != nil {
		_ = s.accounts.Close()
	}
	if s.logFile != nil {
		_ = logger.RemoveLogObserver(s.logFile)
		_ = s.logFile.Close()
	}
}

// contract returns the attached contract or a hint to run init.
func (s *session) contract() (*lottery.Contract, error) {
	c := s.be.Contract()
	if c == nil {
		return nil, fmt.Errorf("%w: run \"lottery init\" first", host.ErrNotDeployed)
	}
	return c, nil
}

// requireDev fails commands that only make sense on the development chain.
func (s *session) requireDev() error {
	if s.onchain {
		return errDevOnly
	}
	return nil
}

// account resolves a dev account index or an address.
func (s *session) account(arg string) (lottery.Identity, error) {
	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 || i >= len(s.devs) {
			return lottery.Identity{}, fmt.Errorf("account index %d out of range [0, %d)", i, len(s.devs))
		}
		return s.devs[i].Identity, nil
	}
	return lottery.ParseIdentity(arg)
}

// addr renders an identity for the configured network.
func (s *session) addr(id lottery.Identity) string {
	return id.Address(s.cfg.Mainnet())
}
