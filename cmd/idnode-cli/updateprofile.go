package main

import (
	"fmt"
	"time"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/urfave/cli/v2"
)

var bioFlag = &cli.StringFlag{
	Name:  "bio",
	Usage: "new bio text",
}

var avatarFlag = &cli.StringFlag{
	Name:  "avatar-base64",
	Usage: "new avatar image, base64-encoded",
}

var commandUpdateProfile = &cli.Command{
	Name:  "update-profile",
	Usage: "replace this operator's profile fields (bio, avatar) and republish",
	Flags: []cli.Flag{bioFlag, avatarFlag},
	Action: func(c *cli.Context) error {
		e, err := buildEnv(c)
		if err != nil {
			return err
		}
		self, err := e.loadSelfKey()
		if err != nil {
			return fmt.Errorf("load identity key: %w", err)
		}
		fp := identity.ComputeFingerprint(e.suite, self.Pub)

		kyberPub, _, err := e.suite.GenerateKyber()
		if err != nil {
			return fmt.Errorf("generate kyber key: %w", err)
		}
		data := identity.ProfileData{
			Bio:          c.String(bioFlag.Name),
			AvatarBase64: c.String(avatarFlag.Name),
		}
		if err := e.mgr.UpdateProfile(c.Context, fp, self.Pub, kyberPub, data, self.Priv, time.Now()); err != nil {
			return fmt.Errorf("update-profile: %w", err)
		}
		fmt.Println(fp.Hex())
		return nil
	},
}
