package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bjpl/describe-it-sub001/internal/models"
)

// Formatter handles different output formats for CLI commands
type Formatter struct {
	format string
}

// NewFormatter creates a new formatter instance
func NewFormatter(format string) *Formatter {
	return &Formatter{format: format}
}

// FormatCredentials formats resolved credential records according to the
// configured format. Values are always masked.
func (f *Formatter) FormatCredentials(records []models.CredentialRecord, w io.Writer) error {
	switch f.format {
	case "json":
		return f.formatJSON(credentialRows(records), w)
	case "table":
		return f.formatCredentialTable(records, w)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

type credentialRow struct {
	Service     string `json:"service"`
	Source      string `json:"source"`
	Valid       bool   `json:"valid"`
	MaskedValue string `json:"masked_value"`
	ValidatedAt string `json:"validated_at"`
}

func credentialRows(records []models.CredentialRecord) []credentialRow {
	rows := make([]credentialRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, credentialRow{
			Service:     r.ServiceID,
			Source:      string(r.Source),
			Valid:       r.IsValid,
			MaskedValue: r.MaskedValue(),
			ValidatedAt: r.ValidatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func (f *Formatter) formatCredentialTable(records []models.CredentialRecord, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tSOURCE\tVALID\tVALUE")
	for _, r := range records {
		valid := Error("no")
		if r.IsValid {
			valid = Success("yes")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ServiceID, r.Source, valid, r.MaskedValue())
	}
	return tw.Flush()
}

// FormatResponse formats an executor response for the execute command
func (f *Formatter) FormatResponse(resp *models.Response, w io.Writer) error {
	switch f.format {
	case "json":
		return f.formatJSON(resp, w)
	case "table":
		fmt.Fprintf(w, "Status: %d\n", resp.StatusCode)
		fmt.Fprintf(w, "Attempts: %d\n", resp.Attempts)
		fmt.Fprintf(w, "From cache: %v\n", resp.FromCache)
		if len(resp.Body) > 0 {
			fmt.Fprintf(w, "Body:\n%s\n", string(resp.Body))
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// formatJSON writes any value as indented JSON
func (f *Formatter) formatJSON(v interface{}, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatDuration renders a duration compactly for status output
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
