package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/listener"
	"github.com/urfave/cli/v2"
)

var poolSizeFlag = &cli.IntFlag{
	Name:  "pool-size",
	Usage: "bound on concurrent reverse lookups",
	Value: listener.DefaultPoolSize,
}

var commandListen = &cli.Command{
	Name:      "listen",
	Usage:     "reverse-lookup a batch of fingerprints concurrently, bounded by a worker pool",
	ArgsUsage: "<fingerprint> [fingerprint...]",
	Flags:     []cli.Flag{poolSizeFlag},
	Action: func(c *cli.Context) error {
		if c.Args().Len() == 0 {
			return fmt.Errorf("listen: expected at least one fingerprint")
		}
		e, err := buildEnv(c)
		if err != nil {
			return err
		}

		fps := make([]identity.Fingerprint, 0, c.Args().Len())
		for _, arg := range c.Args().Slice() {
			fp, err := identity.ParseFingerprintHex(arg)
			if err != nil {
				return fmt.Errorf("listen: %q: %w", arg, err)
			}
			fps = append(fps, fp)
		}

		pool := listener.NewPool(e.ks, c.Int(poolSizeFlag.Name), e.log)

		var mu sync.Mutex
		wg := pool.ListenAllContacts(c.Context, fps, time.Now(), func(fp identity.Fingerprint, name string, ok bool) {
			mu.Lock()
			defer mu.Unlock()
			if ok {
				fmt.Printf("%s -> %s\n", fp.Hex(), name)
			} else {
				fmt.Printf("%s -> (cancelled)\n", fp.Hex())
			}
		})
		wg.Wait()
		return nil
	},
}
