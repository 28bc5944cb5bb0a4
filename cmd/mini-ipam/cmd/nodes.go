package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/cidr"
)

func newNodesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nodes",
		Aliases: []string{"node"},
		Short:   "Manage node address assignments",
	}

	cmd.AddCommand(
		newNodesListCmd(opts),
		newNodesAddCmd(opts),
		newNodesUpdateCmd(opts),
		newNodesDeleteCmd(opts),
	)
	return cmd
}

func newNodesListCmd(opts *rootOptions) *cobra.Command {
	var collectionID int64

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List nodes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.sdkClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var nodes []models.Node
			if collectionID > 0 {
				nodes, err = client.CollectionNodes(ctx, collectionID)
			} else {
				nodes, err = client.ListNodes(ctx)
			}
			if err != nil {
				return err
			}

			if opts.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), nodes)
			}

			collections, err := client.ListCollections(ctx)
			if err != nil {
				return err
			}
			names := make(map[int64]string, len(collections))
			for _, c := range collections {
				names[c.ID] = c.Name
			}
			printNodes(cmd.OutOrStdout(), nodes, names)
			return nil
		},
	}

	cmd.Flags().Int64Var(&collectionID, "collection", 0, "Only list nodes of this collection")
	return cmd
}

// nodeFlags are shared by add and update.
type nodeFlags struct {
	ip           string
	port         int
	collectionID int64
	name         string
	notes        string
	noCheck      bool
}

func (f *nodeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ip, "ip", "", "IPv4 address")
	cmd.Flags().IntVar(&f.port, "port", 0, "Service port, 0-65535")
	cmd.Flags().Int64Var(&f.collectionID, "collection", 0, "Collection id; 0 leaves the node unassigned")
	cmd.Flags().StringVar(&f.name, "name", "", "Node name")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&f.noCheck, "no-check", false, "Skip local validation and let the server decide")
}

func newNodesAddCmd(opts *rootOptions) *cobra.Command {
	var (
		f         nodeFlags
		noSuggest bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a node",
		Long: `Create a node. Without --collection the most specific collection that
contains the address is suggested and used; pass --no-suggest to leave
the node unassigned instead.`,
		Example: `  mini-ipam nodes add --ip 192.168.10.25 --port 22 --name bastion
  mini-ipam nodes add --ip 10.0.0.9 --port 443 --collection 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ip, err := cidr.ParseIPv4(f.ip)
			if err != nil {
				return err
			}
			if f.port < 0 || f.port > models.MaxPort {
				return models.ErrInvalidPort
			}
			client, err := opts.sdkClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			req := models.NodeRequest{
				IPAddress: ip.String(),
				Port:      models.IntValue(int64(f.port)),
				Name:      f.name,
				Notes:     f.notes,
			}

			explicit := cmd.Flags().Changed("collection")
			switch {
			case explicit && f.collectionID > 0 && f.noCheck:
				req.CollectionID = models.IntValue(f.collectionID)
			case explicit && f.collectionID > 0, !explicit && !noSuggest:
				collections, err := client.ListCollections(ctx)
				if err != nil {
					return err
				}
				if err := assignCollection(cmd, opts, &req, ip, collections, explicit, f.collectionID); err != nil {
					return err
				}
			}

			created, err := client.CreateNode(ctx, req)
			if err != nil {
				return err
			}
			return reportNode(cmd, opts, "Created", created)
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&noSuggest, "no-suggest", false, "Do not pick a collection automatically")
	cmd.MarkFlagRequired("ip")
	cmd.MarkFlagRequired("port")
	return cmd
}

func newNodesUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		f         nodeFlags
		resuggest bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a node",
		Long: `Update a node. Omitted flags keep their current value; --name "" and
--notes "" clear them, --collection 0 unassigns the node. With --suggest
the collection is picked again for the (new) address.

Deleting a collection leaves its nodes pointing at the missing id, and the
server refuses writes that keep such a reference. Pass --collection 0 (or
--suggest, or another --collection) when updating a node whose collection
no longer exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("collection") && resuggest {
				return fmt.Errorf("--collection and --suggest are mutually exclusive")
			}
			client, err := opts.sdkClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			current, err := client.GetNode(ctx, id)
			if err != nil {
				return err
			}

			req := requestFromNode(current)
			flags := cmd.Flags()
			if flags.Changed("ip") {
				req.IPAddress = f.ip
			}
			if flags.Changed("port") {
				if f.port < 0 || f.port > models.MaxPort {
					return models.ErrInvalidPort
				}
				req.Port = models.IntValue(int64(f.port))
			}
			if flags.Changed("name") {
				req.Name = f.name
			}
			if flags.Changed("notes") {
				req.Notes = f.notes
			}

			ip, err := cidr.ParseIPv4(req.IPAddress)
			if err != nil {
				return err
			}
			req.IPAddress = ip.String()

			target := int64(0)
			if current.CollectionID != nil {
				target = *current.CollectionID
			}
			if flags.Changed("collection") {
				target = f.collectionID
			}

			switch {
			case resuggest:
				req.CollectionID = models.FlexInt{}
				collections, err := client.ListCollections(ctx)
				if err != nil {
					return err
				}
				if err := assignCollection(cmd, opts, &req, ip, collections, false, 0); err != nil {
					return err
				}
			case target > 0 && !f.noCheck:
				collections, err := client.ListCollections(ctx)
				if err != nil {
					return err
				}
				if err := assignCollection(cmd, opts, &req, ip, collections, true, target); err != nil {
					return err
				}
			case target > 0:
				req.CollectionID = models.IntValue(target)
			default:
				req.CollectionID = models.FlexInt{}
			}

			updated, err := client.UpdateNode(ctx, id, req)
			if err != nil {
				return err
			}
			return reportNode(cmd, opts, "Updated", updated)
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&resuggest, "suggest", false, "Pick the most specific collection for the address again")
	return cmd
}

func newNodesDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a node",
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
			if err := client.DeleteNode(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted node %d\n", id)
			return nil
		},
	}
}

// assignCollection sets req.CollectionID either from an explicit id, checked
// for containment, or from the most specific match for ip.
func assignCollection(cmd *cobra.Command, opts *rootOptions, req *models.NodeRequest, ip cidr.Addr, collections []models.Collection, explicit bool, id int64) error {
	if explicit {
		if err := checkNode(ip, collections, id); err != nil {
			return err
		}
		req.CollectionID = models.IntValue(id)
		return nil
	}

	match := suggest(ip, collections)
	notes := notesWriter(cmd, opts)
	if match == nil {
		fmt.Fprintf(notes, "No collection contains %s; node left unassigned\n", ip)
		return nil
	}

	opts.log(cmd.ErrOrStderr()).Debug("suggested collection",
		zap.String("ip", ip.String()), zap.Int64("collection_id", match.ID), zap.String("cidr", match.CIDR))
	fmt.Fprintf(notes, "Suggested collection %d %q (%s)\n", match.ID, match.Name, match.CIDR)
	req.CollectionID = models.IntValue(match.ID)
	return nil
}

func requestFromNode(n *models.Node) models.NodeRequest {
	req := models.NodeRequest{
		IPAddress: n.IPAddress,
		Port:      models.IntValue(int64(n.Port)),
	}
	if n.CollectionID != nil {
		req.CollectionID = models.IntValue(*n.CollectionID)
	}
	if n.Name != nil {
		req.Name = *n.Name
	}
	if n.Notes != nil {
		req.Notes = *n.Notes
	}
	return req
}

func reportNode(cmd *cobra.Command, opts *rootOptions, verb string, n *models.Node) error {
	if opts.output == outputJSON {
		return printJSON(cmd.OutOrStdout(), n)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s node %d %s:%d collection %s\n",
		verb, n.ID, n.IPAddress, n.Port, collectionLabel(n.CollectionID, nil))
	return nil
}

// notesWriter keeps informational lines out of JSON output.
func notesWriter(cmd *cobra.Command, opts *rootOptions) io.Writer {
	if opts.output == outputJSON {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}
