package main

import (
	"fmt"
	"time"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/urfave/cli/v2"
)

var commandUpdate = &cli.Command{
	Name:  "update",
	Usage: "rekey this operator's identity (rotates the signing and KEM public keys)",
	Action: func(c *cli.Context) error {
		e, err := buildEnv(c)
		if err != nil {
			return err
		}
		oldSelf, err := e.loadSelfKey()
		if err != nil {
			return fmt.Errorf("load identity key: %w", err)
		}
		oldFp := identity.ComputeFingerprint(e.suite, oldSelf.Pub)

		newSelf, err := e.rotateSelfKey()
		if err != nil {
			return fmt.Errorf("rotate identity key: %w", err)
		}
		kyberPub, _, err := e.suite.GenerateKyber()
		if err != nil {
			return fmt.Errorf("generate kyber key: %w", err)
		}
		if err := e.ks.Update(c.Context, oldFp, newSelf.Pub, kyberPub, newSelf.Priv, time.Now()); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		newFp := identity.ComputeFingerprint(e.suite, newSelf.Pub)
		fmt.Println(newFp.Hex())
		return nil
	},
}
