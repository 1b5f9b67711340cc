package cli

import (
	"fmt"
	"io"
	"time"

	"tsinventory/pkg/auth"
	tsstrings "tsinventory/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// TokenOutputFormats are the formats accepted by "token status".
var TokenOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatJSON,
	OutputFormatYAML,
}

// RenderTokenStatus writes the state of the token cache. now is used for
// the remaining lifetime column.
func RenderTokenStatus(w io.Writer, status auth.StatusResponse, format OutputFormat, noHeaders bool, now time.Time) error {
	switch format {
	case OutputFormatJSON:
		return WriteJSON(w, status, true)
	case OutputFormatYAML:
		return WriteYAML(w, status)
	case OutputFormatTable, "":
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}

	if len(status.Tokens) == 0 {
		fmt.Fprintf(w, "No cached tokens in %s\n", status.StorageDir)
		return nil
	}

	tw := NewPlainTableWriter(w)
	tw.SetHeaders([]string{"client id", "token url", "state", "expires in"})
	tw.SetNoHeaders(noHeaders)
	tw.SetMaxCellWidth(tsstrings.DefaultColumnMaxLen)

	for _, t := range status.Tokens {
		tw.AppendRow([]string{
			orDash(t.ClientID),
			orDash(t.TokenURL),
			colorState(t.State),
			expiresIn(t, now),
		})
	}
	tw.Render()
	return nil
}

func colorState(state string) string {
	switch state {
	case auth.StateValid:
		return text.FgGreen.Sprint(state)
	case auth.StateExpired:
		return text.FgYellow.Sprint(state)
	default:
		return text.FgRed.Sprint(state)
	}
}

func expiresIn(t auth.TokenStatus, now time.Time) string {
	if t.ExpiresAt.IsZero() || !t.Valid() {
		return "-"
	}
	return t.ExpiresAt.Sub(now).Round(time.Second).String()
}
