package main

import (
	"fmt"
	"time"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/urfave/cli/v2"
)

var commandPublish = &cli.Command{
	Name:  "publish",
	Usage: "publish a fresh self-certifying identity record for this operator",
	Action: func(c *cli.Context) error {
		e, err := buildEnv(c)
		if err != nil {
			return err
		}
		self, err := e.loadSelfKey()
		if err != nil {
			return fmt.Errorf("load identity key: %w", err)
		}
		kyberPub, _, err := e.suite.GenerateKyber()
		if err != nil {
			return fmt.Errorf("generate kyber key: %w", err)
		}
		now := time.Now()
		fp := identity.ComputeFingerprint(e.suite, self.Pub)
		if err := e.ks.Publish(c.Context, fp, self.Pub, kyberPub, self.Priv, now); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		fmt.Println(fp.Hex())
		return nil
	},
}
