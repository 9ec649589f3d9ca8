// -- cmd/meta.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lupen-dev/Mori/internal/meta"
	"github.com/Lupen-dev/Mori/internal/observability"
)

func newMetaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "meta",
		Short: "Fetch the Growtopia server meta address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := meta.NewFetcher(cfg.Meta, observability.GetLogger())

			value, err := fetcher.Fetch(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}
