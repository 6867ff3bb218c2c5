package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/bitfsorg/lottery-go/chain"
	"github.com/bitfsorg/lottery-go/config"
	"github.com/bitfsorg/lottery-go/host"
	"github.com/bitfsorg/lottery-go/lottery"
	"github.com/bitfsorg/lottery-go/network"
)

func commands() []cli.Command {
	return []cli.Command{
		{
			Name:  "init",
			Usage: "write the config, fund the dev accounts and deploy the lottery",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "manager", Value: 0, Usage: "dev account index of the manager"},
				cli.StringFlag{Name: "min-stake", Usage: "minimum entry in coins (default from config)"},
			},
			Action: withSession(initAction),
		},
		{
			Name:   "accounts",
			Usage:  "list dev accounts and balances",
			Action: withSession(accountsAction),
		},
		{
			Name:      "fund",
			Usage:     "credit an account",
			ArgsUsage: "<account> <amount>",
			Action:    withSession(fundAction),
		},
		{
			Name:      "enter",
			Usage:     "enter the current round",
			ArgsUsage: "<account> <amount>",
			Action:    withSession(enterAction),
		},
		{
			Name:  "pick",
			Usage: "resolve the current round (manager only)",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "from", Usage: "calling account (default: the manager)"},
				cli.StringSliceFlag{Name: "reject", Usage: "account that refuses the payout; repeatable"},
			},
			Action: withSession(pickAction),
		},
		{
			Name:   "players",
			Usage:  "list entries of the current round",
			Action: withSession(playersAction),
		},
		{
			Name:   "status",
			Usage:  "show the contract state",
			Action: withSession(statusAction),
		},
		{
			Name:   "rounds",
			Usage:  "list resolved rounds",
			Action: withSession(roundsAction),
		},
		{
			Name:   "entropy",
			Usage:  "draw a selection seed from a node's chain tip",
			Action: entropyAction,
		},
	}
}

func withSession(fn func(c *cli.Context, s *session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(c, s)
	}
}

func parseArgs(c *cli.Context, s *session) (lottery.Identity, uint64, error) {
	if c.NArg() != 2 {
		return lottery.Identity{}, 0, fmt.Errorf("usage: lottery %s %s", c.Command.Name, c.Command.ArgsUsage)
	}
	id, err := s.account(c.Args().Get(0))
	if err != nil {
		return lottery.Identity{}, 0, err
	}
	amount, err := lottery.ParseAmount(c.Args().Get(1))
	if err != nil {
		return lottery.Identity{}, 0, err
	}
	return id, amount, nil
}

func initAction(c *cli.Context, s *session) error {
	if s.be.Contract() != nil {
		return fmt.Errorf("%w in %s", host.ErrAlreadyDeployed, s.cfg.DataDir)
	}
	if v := c.String("min-stake"); v != "" {
		s.cfg.MinStake = v
	}
	minStake, err := s.cfg.MinStakeSats()
	if err != nil {
		return err
	}
	mgrIdx := c.Int("manager")
	if mgrIdx < 0 || mgrIdx >= len(s.devs) {
		return fmt.Errorf("manager index %d out of range", mgrIdx)
	}

	if err := config.SaveConfig(s.cfgPath, s.cfg); err != nil {
		return err
	}

	ctx := context.Background()
	mgr := s.devs[mgrIdx]
	var con *lottery.Contract
	if s.onchain {
		cb := s.be.(*chainBackend)
		if cb.con, err = s.deployChain(ctx, mgr.Identity, mgr.PrivateKey, lottery.WithMinStake(minStake)); err != nil {
			return err
		}
		con = cb.con
	} else {
		if con, err = s.deployDev(ctx, mgr.Identity, minStake); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.App.Writer, "config    %s\n", s.cfgPath)
	fmt.Fprintf(c.App.Writer, "contract  %s\n", s.addr(con.Address()))
	fmt.Fprintf(c.App.Writer, "manager   %s\n", s.addr(con.Manager()))
	fmt.Fprintf(c.App.Writer, "min stake %s\n", lottery.FormatAmount(con.MinStake()))
	if s.onchain {
		fmt.Fprintf(c.App.Writer, "deposit entry stakes to %s\n", s.addr(con.Address()))
	}
	return nil
}

func (s *session) deployDev(ctx context.Context, manager lottery.Identity, minStake uint64) (*lottery.Contract, error) {
	balances, err := s.rt.Accounts()
	if err != nil {
		return nil, err
	}
	if len(balances) == 0 {
		for _, d := range s.devs {
			if err := s.rt.Fund(d.Identity, devAccountFunds); err != nil {
				return nil, err
			}
		}
	}
	return s.rt.Deploy(ctx, manager, s.store, lottery.WithMinStake(minStake))
}

func accountsAction(c *cli.Context, s *session) error {
	if err := s.requireDev(); err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tADDRESS\tBALANCE\tPATH")
	for i, d := range s.devs {
		bal, err := s.rt.Balance(d.Identity)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, s.addr(d.Identity), lottery.FormatAmount(bal), d.Path)
	}
	if con := s.rt.Contract(); con != nil {
		bal, err := s.rt.Balance(con.Address())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "-\t%s\t%s\tcontract\n", s.addr(con.Address()), lottery.FormatAmount(bal))
	}
	return w.Flush()
}

func fundAction(c *cli.Context, s *session) error {
	if err := s.requireDev(); err != nil {
		return err
	}
	id, amount, err := parseArgs(c, s)
	if err != nil {
		return err
	}
	if err := s.rt.Fund(id, amount); err != nil {
		return err
	}
	bal, err := s.rt.Balance(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s balance %s\n", s.addr(id), lottery.FormatAmount(bal))
	return nil
}

func enterAction(c *cli.Context, s *session) error {
	con, err := s.contract()
	if err != nil {
		return err
	}
	id, amount, err := parseArgs(c, s)
	if err != nil {
		return err
	}
	if err := s.be.Enter(context.Background(), id, amount); err != nil {
		return err
	}
	players, err := con.Players(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "entered %s for %s (%d entries)\n", s.addr(id), lottery.FormatAmount(amount), len(players))
	return nil
}

func pickAction(c *cli.Context, s *session) error {
	con, err := s.contract()
	if err != nil {
		return err
	}
	from := con.Manager()
	if v := c.String("from"); v != "" {
		if from, err = s.account(v); err != nil {
			return err
		}
	}
	rejects := c.StringSlice("reject")
	if len(rejects) > 0 {
		if err := s.requireDev(); err != nil {
			return err
		}
	}
	for _, v := range rejects {
		id, err := s.account(v)
		if err != nil {
			return err
		}
		s.rt.Reject(id, true)
	}

	res, err := s.be.PickWinner(context.Background(), from)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "round %d won by %s (entry %d of %d), paid %s\n",
		res.Round, s.addr(res.Winner), res.Index, res.Entries, lottery.FormatAmount(res.Amount))
	if s.payer != nil {
		fmt.Fprintf(c.App.Writer, "payout tx %s\n", s.payer.LastTxID())
	}
	return nil
}

func playersAction(c *cli.Context, s *session) error {
	con, err := s.contract()
	if err != nil {
		return err
	}
	players, err := con.Players(context.Background())
	if err != nil {
		return err
	}
	for i, p := range players {
		fmt.Fprintf(c.App.Writer, "%d\t%s\n", i, s.addr(p))
	}
	return nil
}

func statusAction(c *cli.Context, s *session) error {
	con, err := s.contract()
	if err != nil {
		return err
	}
	ctx := context.Background()
	bal, err := con.Balance(ctx)
	if err != nil {
		return err
	}
	players, err := con.Players(ctx)
	if err != nil {
		return err
	}
	round, err := con.Round(ctx)
	if err != nil {
		return err
	}
	last, err := con.LastResolution(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "contract\t%s\n", s.addr(con.Address()))
	fmt.Fprintf(w, "manager\t%s\n", s.addr(con.Manager()))
	fmt.Fprintf(w, "min stake\t%s\n", lottery.FormatAmount(con.MinStake()))
	fmt.Fprintf(w, "pool\t%s\n", lottery.FormatAmount(bal))
	fmt.Fprintf(w, "entries\t%d\n", len(players))
	fmt.Fprintf(w, "rounds\t%d\n", round)
	if last != nil {
		fmt.Fprintf(w, "last winner\t%s (%s)\n", s.addr(last.Winner), lottery.FormatAmount(last.Amount))
	}
	if s.onchain {
		fmt.Fprintf(w, "settlement\t%s node\n", s.cfg.Network)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	// The stake is fixed at deployment; a later min_stake edit does not apply.
	if cfgStake, err := s.cfg.MinStakeSats(); err == nil && cfgStake != con.MinStake() {
		fmt.Fprintf(c.App.Writer, "note: config min_stake %s is ignored, the deployed contract keeps %s\n",
			lottery.FormatAmount(cfgStake), lottery.FormatAmount(con.MinStake()))
	}
	return nil
}

func roundsAction(c *cli.Context, s *session) error {
	con, err := s.contract()
	if err != nil {
		return err
	}
	rounds, err := con.Rounds(context.Background())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROUND\tWINNER\tENTRIES\tAMOUNT\tSEED")
	for _, r := range rounds {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%x\n", r.Round, s.addr(r.Winner), r.Entries, lottery.FormatAmount(r.Amount), r.Seed)
	}
	return w.Flush()
}

func entropyAction(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	rpcCfg, err := rpcConfig(c, cfg)
	if err != nil {
		return err
	}

	src, err := chain.NewHeaderEntropy(network.NewRPCClient(*rpcCfg), nil)
	if err != nil {
		return err
	}
	seed, err := src.Entropy(context.Background())
	if err != nil {
		if errors.Is(err, network.ErrConnectionFailed) {
			return fmt.Errorf("%w (is a %s node listening on %s?)", err, cfg.Network, rpcCfg.URL)
		}
		return err
	}
	fmt.Fprintln(c.App.Writer, hex.EncodeToString(seed))
	return nil
}
