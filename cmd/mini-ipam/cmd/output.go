package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dobriak/mini-ipam/models"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCollections(w io.Writer, collections []models.Collection) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCIDR")
	for _, c := range collections {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.CIDR)
	}
	tw.Flush()
}

// printNodes writes a node table. names maps collection ids to names and may be nil.
func printNodes(w io.Writer, nodes []models.Node, names map[int64]string) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tIP\tPORT\tCOLLECTION\tNAME\tNOTES")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			n.ID, n.IPAddress, n.Port, collectionLabel(n.CollectionID, names), orDash(n.Name), orDash(n.Notes))
	}
	tw.Flush()
}

func printInfo(w io.Writer, info *models.CollectionInfo) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%d\n", info.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", info.Name)
	fmt.Fprintf(tw, "CIDR:\t%s\n", info.CIDR)
	fmt.Fprintf(tw, "Netmask:\t%s\n", info.Netmask)
	fmt.Fprintf(tw, "Broadcast:\t%s\n", info.Broadcast)
	fmt.Fprintf(tw, "Usable range:\t%s - %s\n", info.FirstUsable, info.LastUsable)
	fmt.Fprintf(tw, "Addresses:\t%d total, %d usable\n", info.TotalIPs, info.UsableIPs)
	fmt.Fprintf(tw, "Nodes:\t%d\n", info.NodeCount)
	tw.Flush()
}

func collectionLabel(id *int64, names map[int64]string) string {
	if id == nil {
		return "-"
	}
	if name, ok := names[*id]; ok {
		return fmt.Sprintf("%d (%s)", *id, name)
	}
	return strconv.FormatInt(*id, 10)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
