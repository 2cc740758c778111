package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spacemeshos/go-iusync/cmd"
	"github.com/spacemeshos/go-iusync/p2p"
)

var errNoDataDir = errors.New("identity needs a data dir")

// newIdentityCommand creates the identity in the p2p data dir if it is missing and prints it.
func newIdentityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "identity [data-dir]",
		Short: "create or show the p2p identity kept in the data dir",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			conf, err := cmd.LoadConfig(c.Flags())
			if err != nil {
				return err
			}
			dir := conf.P2P.DataDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return errNoDataDir
			}
			if _, err := p2p.EnsureIdentity(dir); err != nil {
				return fmt.Errorf("generate identity: %w", err)
			}
			info, err := p2p.PrettyIdentityInfoFromDir(dir)
			if err != nil {
				return fmt.Errorf("read identity: %w", err)
			}
			fmt.Fprintln(c.OutOrStdout(), info)
			return nil
		},
	}
}
