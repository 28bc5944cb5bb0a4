package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/cidr"
)

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var useServer bool

	cmd := &cobra.Command{
		Use:   "suggest <ip>",
		Short: "Show the most specific collection containing an address",
		Long: `Show which collection a node at <ip> would be assigned to. The longest
prefix wins; among equal prefixes the collection with the lowest id wins.
A miss is not an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ip, err := cidr.ParseIPv4(args[0])
			if err != nil {
				return err
			}
			client, err := opts.sdkClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			result := models.LookupResponse{IP: ip.String()}
			if useServer {
				resp, err := client.Lookup(ctx, ip.String())
				if err != nil {
					return err
				}
				result = *resp
			} else {
				collections, err := client.ListCollections(ctx)
				if err != nil {
					return err
				}
				result.Match = suggest(ip, collections)
			}

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				return printJSON(out, result)
			}
			if result.Match == nil {
				fmt.Fprintf(out, "No collection contains %s\n", result.IP)
				return nil
			}
			fmt.Fprintf(out, "%s -> collection %d %q (%s)\n", result.IP, result.Match.ID, result.Match.Name, result.Match.CIDR)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useServer, "server", false, "Ask the server instead of matching locally")
	return cmd
}
