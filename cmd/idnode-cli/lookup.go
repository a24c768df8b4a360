package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/urfave/cli/v2"
)

var commandLookup = &cli.Command{
	Name:      "lookup",
	Usage:     "resolve a name or fingerprint to an identity record, through the SWR caches",
	ArgsUsage: "<name-or-fingerprint>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("lookup: expected exactly one argument")
		}
		arg := c.Args().First()

		e, err := buildEnv(c)
		if err != nil {
			return err
		}
		now := time.Now()

		fp, err := resolveFingerprint(c.Context, e, arg, now)
		if err != nil {
			return fmt.Errorf("lookup: %w", err)
		}
		rec, err := e.idc.Get(c.Context, fp, now)
		if err != nil {
			return fmt.Errorf("lookup: %w", err)
		}
		fmt.Println("fingerprint:", rec.Fingerprint.Hex())
		fmt.Println("version:    ", rec.Version)
		if rec.HasRegisteredName {
			fmt.Println("name:       ", rec.RegisteredName)
		}
		if rec.Bio != "" {
			fmt.Println("bio:        ", rec.Bio)
		}
		return nil
	},
}

// resolveFingerprint routes a name through namecache and a fingerprint
// straight through, mirroring keyserver.Lookup's own dispatch but reading
// the name side through the SWR name cache (spec §5) instead of a direct DHT
// alias fetch.
func resolveFingerprint(ctx context.Context, e *env, arg string, now time.Time) (identity.Fingerprint, error) {
	if identity.LooksLikeFingerprint(arg) {
		return identity.ParseFingerprintHex(arg)
	}
	return e.namec.Resolve(ctx, arg, now)
}
