package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"tsinventory/internal/tailscale"
	tsstrings "tsinventory/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NodeRenderOptions controls RenderNodes.
type NodeRenderOptions struct {
	Format    OutputFormat
	NoHeaders bool
}

// RenderNodes writes devices in the requested format, sorted by host name.
func RenderNodes(w io.Writer, devices []tailscale.Device, opts NodeRenderOptions) error {
	sorted := sortDevices(devices)

	switch opts.Format {
	case OutputFormatJSON:
		return WriteJSON(w, sorted, true)
	case OutputFormatYAML:
		return WriteYAML(w, sorted)
	case OutputFormatWide:
		renderNodesWide(w, sorted, opts.NoHeaders)
		return nil
	case OutputFormatTable, "":
		renderNodesPlain(w, sorted, opts.NoHeaders)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func sortDevices(devices []tailscale.Device) []tailscale.Device {
	sorted := append([]tailscale.Device{}, devices...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Hostname != sorted[j].Hostname {
			return sorted[i].Hostname < sorted[j].Hostname
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func renderNodesPlain(w io.Writer, devices []tailscale.Device, noHeaders bool) {
	tw := NewPlainTableWriter(w)
	tw.SetHeaders([]string{"hostname", "address", "os", "online", "tags"})
	tw.SetNoHeaders(noHeaders)
	tw.SetMaxCellWidth(tsstrings.DefaultColumnMaxLen)

	for _, d := range devices {
		tw.AppendRow([]string{
			d.Hostname,
			orDash(d.PrimaryAddress()),
			orDash(d.OS),
			yesNo(d.Online()),
			orDash(joinTags(d.Tags)),
		})
	}
	tw.Render()
}

func renderNodesWide(w io.Writer, devices []tailscale.Device, noHeaders bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	if !noHeaders {
		t.AppendHeader(table.Row{"Hostname", "DNS Name", "ID", "Addresses", "OS", "Version", "Online", "Last Seen", "Tags"})
	}

	online := 0
	for _, d := range devices {
		status := text.FgRed.Sprint("no")
		if d.Online() {
			status = text.FgGreen.Sprint("yes")
			online++
		}
		t.AppendRow(table.Row{
			text.Bold.Sprint(d.Hostname),
			orDash(strings.TrimSuffix(d.Name, ".")),
			d.ID,
			orDash(strings.Join(d.Addresses, "\n")),
			orDash(d.OS),
			orDash(d.ClientVersion),
			status,
			orDash(d.LastSeen),
			orDash(strings.Join(d.Tags, "\n")),
		})
	}

	if !noHeaders {
		t.AppendFooter(table.Row{fmt.Sprintf("%d devices", len(devices)), "", "", "", "", "", fmt.Sprintf("%d online", online)})
	}
	t.Render()
}

func joinTags(tags []string) string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tailscale.TagName(tag))
	}
	return strings.Join(names, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
