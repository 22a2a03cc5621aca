package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/injector"
	"github.com/invaen/ricochet/internal/models"
	"github.com/invaen/ricochet/internal/payloadset"
	"github.com/invaen/ricochet/internal/poller"
	"github.com/invaen/ricochet/internal/ratelimit"
	"github.com/invaen/ricochet/internal/reqparse"
)

var passiveFlags struct {
	requestFile  string
	payload      string
	context      string
	callbackURL  string
	minSeverity  string
	pollInterval float64
	pollTimeout  float64
	rate         float64
	proxy        string
	insecure     bool
}

var passiveCmd = &cobra.Command{
	Use:   "passive",
	Short: "Inject once, then poll for second-order callbacks until timeout",
	RunE:  runPassive,
}

func init() {
	rootCmd.AddCommand(passiveCmd)
	f := passiveCmd.Flags()
	f.StringVarP(&passiveFlags.requestFile, "request-file", "r", "", "Burp-style raw request file (required)")
	f.StringVar(&passiveFlags.payload, "payload", "{{CALLBACK}}", "payload template, or builtin:<tag>")
	f.StringVar(&passiveFlags.context, "context", "", "vuln-class tag stored with the injection (e.g. sqli:mssql), used for severity/report classification (I7); defaults to the builtin: payload tag if any")
	f.StringVar(&passiveFlags.callbackURL, "callback", "http://localhost:8080", "base callback URL to embed")
	f.StringVar(&passiveFlags.minSeverity, "min-severity", "info", "minimum severity to report: info, medium, high")
	f.Float64Var(&passiveFlags.pollInterval, "poll-interval", 5.0, "base polling interval in seconds")
	f.Float64Var(&passiveFlags.pollTimeout, "poll-timeout", 3600.0, "total polling timeout in seconds")
	f.Float64Var(&passiveFlags.rate, "rate", 10, "requests per second for injection")
	f.StringVar(&passiveFlags.proxy, "proxy", "", "HTTP proxy URL")
	f.BoolVar(&passiveFlags.insecure, "insecure", false, "skip TLS certificate verification (opt-in bypass, §4.3)")
	_ = passiveCmd.MarkFlagRequired("request-file")
}

func runPassive(cmd *cobra.Command, args []string) error {
	if passiveFlags.requestFile == "" {
		return usageErrorf("passive requires -r REQUEST_FILE")
	}

	content, err := os.ReadFile(passiveFlags.requestFile)
	if err != nil {
		return err
	}
	req, err := reqparse.ParseFile(content)
	if err != nil {
		return usageErrorf("malformed request file: %v", err)
	}

	if err := openStorePath(); err != nil {
		return err
	}
	sdb, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer sdb.Close()
	store := db.NewStore(sdb)

	payloads, contextTag, err := resolvePassivePayloads()
	if err != nil {
		return err
	}

	inj := injector.New(store, passiveFlags.callbackURL)
	inj.ProxyURL = passiveFlags.proxy
	inj.InsecureSkipVerify = passiveFlags.insecure
	inj.Context = contextTag
	if passiveFlags.rate > 0 {
		inj.RateLimiter = ratelimit.New(passiveFlags.rate, 1)
	}

	var vectorCount int
	for _, payload := range payloads {
		results := inj.InjectAllVectors(req, payload, false, false)
		vectorCount += len(results)
		for _, res := range results {
			logResult(res)
		}
	}
	logger.Info("injected, polling for second-order callbacks",
		zap.Int("vectors", vectorCount),
		zap.Float64("poll_interval", passiveFlags.pollInterval),
		zap.Float64("poll_timeout", passiveFlags.pollTimeout))

	cfg := poller.DefaultConfig()
	cfg.BaseInterval = passiveFlags.pollInterval
	cfg.Timeout = passiveFlags.pollTimeout

	ctx, stopNotify := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stopNotify()
	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()

	total, err := poller.Run(store, cfg, passiveFlags.minSeverity, reportFindings, time.Sleep, stop)
	if err != nil {
		return err
	}
	logger.Info("passive polling finished", zap.Int("findings", total))
	return nil
}

// resolvePassivePayloads mirrors inject.go's resolvePayloads: an explicit
// --context always wins, otherwise a builtin:<tag> payload reference
// supplies the tag recorded with the injection (I7).
func resolvePassivePayloads() ([]string, string, error) {
	if strings.HasPrefix(passiveFlags.payload, "builtin:") {
		tag := strings.TrimPrefix(passiveFlags.payload, "builtin:")
		templates, ok := payloadset.Lookup(tag)
		if !ok {
			return nil, "", usageErrorf("unknown builtin payload tag %q", tag)
		}
		contextTag := passiveFlags.context
		if contextTag == "" {
			contextTag = tag
		}
		return templates, contextTag, nil
	}
	return []string{passiveFlags.payload}, passiveFlags.context, nil
}

func reportFindings(found []models.Finding) {
	for _, f := range found {
		fmt.Fprintf(os.Stdout, "%s  %-6s  %s  %s  from %s  (delay %.1fs)\n",
			f.Injection.Token,
			f.Severity,
			f.Injection.TargetURL,
			f.Injection.Parameter,
			f.Callback.SourceIP,
			f.DelaySeconds)
	}
}
