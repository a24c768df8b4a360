package main

import (
	"fmt"
	"time"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/urfave/cli/v2"
)

var commandRegister = &cli.Command{
	Name:      "register",
	Usage:     "bind a name to this operator's identity, gated by a verified on-chain registration tx",
	ArgsUsage: "<name> <tx-hash> <network>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 3 {
			return fmt.Errorf("register: expected <name> <tx-hash> <network>")
		}
		name, txHash, network := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)

		e, err := buildEnv(c)
		if err != nil {
			return err
		}
		self, err := e.loadSelfKey()
		if err != nil {
			return fmt.Errorf("load identity key: %w", err)
		}
		fp := identity.ComputeFingerprint(e.suite, self.Pub)

		if err := e.reg.Register(c.Context, fp, name, txHash, network, self.Priv, time.Now()); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		e.namec.Invalidate(name)
		fmt.Println(identity.NormalizeName(name))
		return nil
	},
}
