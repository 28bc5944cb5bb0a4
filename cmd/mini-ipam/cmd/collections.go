package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
)

func newCollectionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "Manage collections of private address space",
	}

	cmd.AddCommand(
		newCollectionsListCmd(opts),
		newCollectionsShowCmd(opts),
		newCollectionsAddCmd(opts),
		newCollectionsUpdateCmd(opts),
		newCollectionsDeleteCmd(opts),
	)
	return cmd
}

func newCollectionsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List collections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.sdkClient(cmd)
			if err != nil {
				return err
			}
			collections, err := client.ListCollections(cmd.Context())
			if err != nil {
				return err
			}

			if opts.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), collections)
			}
			printCollections(cmd.OutOrStdout(), collections)
			return nil
		},
	}
}

func newCollectionsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show block details and nodes of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := opts.sdkClient(cmd)
			if err != nil {
				return err
			}

			info, err := client.CollectionInfo(cmd.Context(), id)
			if err != nil {
				return err
			}
			nodes, err := client.CollectionNodes(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				return printJSON(out, struct {
					Info  *models.CollectionInfo `json:"info"`
					Nodes []models.Node          `json:"nodes"`
				}{info, nodes})
			}

			printInfo(out, info)
			if len(nodes) > 0 {
				fmt.Fprintln(out)
				printNodes(out, nodes, map[int64]string{info.ID: info.Name})
			}
			return nil
		},
	}
}

func newCollectionsAddCmd(opts *rootOptions) *cobra.Command {
	var (
		name    string
		block   string
		noCheck bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a collection",
		Long: `Create a collection. The block must lie in RFC 1918 space and may not
overlap an existing collection. Host bits are dropped, so 10.1.2.3/16 is
stored as 10.1.0.0/16.`,
		Example: `  mini-ipam collections add --name office --cidr 192.168.10.0/24`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.sdkClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if !noCheck {
				existing, err := client.ListCollections(ctx)
				if err != nil {
					return err
				}
				if err := checkCollection(block, existing, 0); err != nil {
					return err
				}
			}

			created, err := client.CreateCollection(ctx, models.CollectionRequest{Name: name, CIDR: block})
			if err != nil {
				return err
			}
			opts.log(cmd.ErrOrStderr()).Debug("collection created", zap.Int64("id", created.ID), zap.String("cidr", created.CIDR))

			if opts.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created collection %d %q (%s)\n", created.ID, created.Name, created.CIDR)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Collection name (required)")
	cmd.Flags().StringVar(&block, "cidr", "", "IPv4 block, e.g. 10.20.0.0/16 (required)")
	cmd.Flags().BoolVar(&noCheck, "no-check", false, "Skip local validation and let the server decide")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("cidr")
	return cmd
}

func newCollectionsUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		name    string
		block   string
		noCheck bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a collection or change its block",
		Long: `Update a collection. Omitted flags keep their current value. The server
refuses a new block that would leave assigned nodes outside it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("cidr") {
				return fmt.Errorf("nothing to update: pass --name and/or --cidr")
			}
			client, err := opts.sdkClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			current, err := client.GetCollection(ctx, id)
			if err != nil {
				return err
			}
			req := models.CollectionRequest{Name: current.Name, CIDR: current.CIDR}
			if cmd.Flags().Changed("name") {
				req.Name = name
			}
			if cmd.Flags().Changed("cidr") {
				req.CIDR = block
			}

			if !noCheck {
				existing, err := client.ListCollections(ctx)
				if err != nil {
					return err
				}
				if err := checkCollection(req.CIDR, existing, id); err != nil {
					return err
				}
			}

			updated, err := client.UpdateCollection(ctx, id, req)
			if err != nil {
				return err
			}

			if opts.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated collection %d %q (%s)\n", updated.ID, updated.Name, updated.CIDR)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New collection name")
	cmd.Flags().StringVar(&block, "cidr", "", "New IPv4 block")
	cmd.Flags().BoolVar(&noCheck, "no-check", false, "Skip local validation and let the server decide")
	return cmd
}

func newCollectionsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a collection",
		Long:    `Delete a collection. Its nodes are kept and still reference the deleted id.`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := opts.sdkClient(cmd)
			if err != nil {
				return err
			}
			if err := client.DeleteCollection(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %d\n", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
