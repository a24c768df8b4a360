package main

import (
	"fmt"
	"time"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/urfave/cli/v2"
)

var commandRenew = &cli.Command{
	Name:      "renew",
	Usage:     "extend this operator's currently registered name, gated by a verified on-chain renewal tx",
	ArgsUsage: "<tx-hash>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("renew: expected <tx-hash>")
		}
		txHash := c.Args().First()

		e, err := buildEnv(c)
		if err != nil {
			return err
		}
		self, err := e.loadSelfKey()
		if err != nil {
			return fmt.Errorf("load identity key: %w", err)
		}
		fp := identity.ComputeFingerprint(e.suite, self.Pub)

		before, err := e.ks.Load(c.Context, fp, false)
		if err != nil {
			return fmt.Errorf("renew: %w", err)
		}
		if err := e.reg.Renew(c.Context, fp, txHash, self.Priv, time.Now()); err != nil {
			return fmt.Errorf("renew: %w", err)
		}
		if before.HasRegisteredName {
			e.namec.Invalidate(before.RegisteredName)
		}
		fmt.Println("renewed")
		return nil
	},
}
