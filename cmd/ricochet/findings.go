package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/findings"
	"github.com/invaen/ricochet/internal/models"
)

var findingsFlags struct {
	output      string
	sinceHours  float64
	minSeverity string
}

var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "List correlated findings from the store",
	RunE:  runFindings,
}

func init() {
	rootCmd.AddCommand(findingsCmd)
	f := findingsCmd.Flags()
	f.StringVarP(&findingsFlags.output, "output", "o", "text", "output format: text or json")
	f.Float64Var(&findingsFlags.sinceHours, "since", 0, "only findings with a callback in the last N hours (0 = all)")
	f.StringVar(&findingsFlags.minSeverity, "min-severity", "info", "minimum severity to report: info, medium, high")
}

// findingEnvelope matches §6's JSONL output shape: one finding per line,
// wrapped with a timestamp and tool identifier.
type findingEnvelope struct {
	Timestamp string       `json:"timestamp"`
	Tool      string       `json:"tool"`
	Finding   findingBody  `json:"finding"`
}

type findingBody struct {
	CorrelationID string         `json:"correlation_id"`
	Severity      string         `json:"severity"`
	Injection     injectionBody  `json:"injection"`
	Callback      callbackBody   `json:"callback"`
}

type injectionBody struct {
	TargetURL  string  `json:"target_url"`
	Parameter  string  `json:"parameter"`
	Payload    string  `json:"payload"`
	Context    string  `json:"context,omitempty"`
	InjectedAt float64 `json:"injected_at"`
}

type callbackBody struct {
	SourceIP     string  `json:"source_ip"`
	RequestPath  string  `json:"request_path"`
	ReceivedAt   float64 `json:"received_at"`
	DelaySeconds float64 `json:"delay_seconds"`
	Metadata     any     `json:"metadata,omitempty"`
}

func runFindings(cmd *cobra.Command, args []string) error {
	if err := openStorePath(); err != nil {
		return err
	}
	sdb, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer sdb.Close()
	store := db.NewStore(sdb)

	var since *float64
	if findingsFlags.sinceHours > 0 {
		cutoff := float64(time.Now().Add(-time.Duration(findingsFlags.sinceHours*float64(time.Hour))).Unix())
		since = &cutoff
	}

	found, err := findings.Get(store, since, findingsFlags.minSeverity)
	if err != nil {
		return err
	}

	switch findingsFlags.output {
	case "json":
		return printFindingsJSON(found)
	case "text", "":
		return printFindingsText(found)
	default:
		return usageErrorf("unknown output format %q: expected text or json", findingsFlags.output)
	}
}

func printFindingsJSON(found []models.Finding) error {
	enc := json.NewEncoder(os.Stdout)
	for _, f := range found {
		envelope := findingEnvelope{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Tool:      "ricochet",
			Finding: findingBody{
				CorrelationID: f.Injection.Token,
				Severity:      f.Severity,
				Injection: injectionBody{
					TargetURL:  f.Injection.TargetURL,
					Parameter:  f.Injection.Parameter,
					Payload:    f.Injection.Payload,
					Context:    f.Injection.Context,
					InjectedAt: f.Injection.InjectedAt,
				},
				Callback: callbackBody{
					SourceIP:     f.Callback.SourceIP,
					RequestPath:  f.Callback.RequestPath,
					ReceivedAt:   f.Callback.ReceivedAt,
					DelaySeconds: f.DelaySeconds,
					Metadata:     decodeBodyMetadata(f.Callback.Body),
				},
			},
		}
		if err := enc.Encode(envelope); err != nil {
			return fmt.Errorf("encode finding: %w", err)
		}
	}
	return nil
}

// decodeBodyMetadata attempts to parse a callback body as JSON for
// display; a non-JSON or empty body yields no metadata field at all.
func decodeBodyMetadata(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	return parsed
}

func printFindingsText(found []models.Finding) error {
	if len(found) == 0 {
		logger.Info("no findings")
		return nil
	}
	for _, f := range found {
		fmt.Fprintf(os.Stdout, "%s  %-6s  %s  %s  from %s  %s  (delay %.1fs)\n",
			f.Injection.Token,
			f.Severity,
			f.Injection.TargetURL,
			f.Injection.Parameter,
			f.Callback.SourceIP,
			humanize.Time(time.Unix(int64(f.Callback.ReceivedAt), 0)),
			f.DelaySeconds)
	}
	return nil
}
