package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/netfetch"
	"github.com/invaen/ricochet/internal/probecatalog"
	"github.com/invaen/ricochet/internal/ratelimit"
)

var activeFlags struct {
	baseURL       string
	endpointsFile string
	rate          float64
	proxy         string
	insecure      bool
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "Probe admin/support/analytics endpoints likely to render stored payloads",
	RunE:  runActive,
}

func init() {
	rootCmd.AddCommand(activeCmd)
	f := activeCmd.Flags()
	f.StringVarP(&activeFlags.baseURL, "url", "u", "", "base URL to probe (required)")
	f.StringVar(&activeFlags.endpointsFile, "endpoints", "", "file of endpoint paths, one per line (default: built-in catalog)")
	f.Float64Var(&activeFlags.rate, "rate", 10, "requests per second")
	f.StringVar(&activeFlags.proxy, "proxy", "", "HTTP proxy URL")
	f.BoolVar(&activeFlags.insecure, "insecure", false, "skip TLS certificate verification (opt-in bypass, §4.3)")
	_ = activeCmd.MarkFlagRequired("url")
}

func runActive(cmd *cobra.Command, args []string) error {
	if activeFlags.baseURL == "" {
		return usageErrorf("active requires -u BASE_URL")
	}

	endpoints := probecatalog.Endpoints
	if activeFlags.endpointsFile != "" {
		loaded, err := loadEndpoints(activeFlags.endpointsFile)
		if err != nil {
			return err
		}
		endpoints = loaded
	}

	limiter := ratelimit.New(activeFlags.rate, 1)
	base := strings.TrimRight(activeFlags.baseURL, "/")

	results := make([]probecatalog.Result, 0, len(endpoints))
	for _, endpoint := range endpoints {
		limiter.Acquire()
		target := base + endpoint
		resp, err := netfetch.Send(target, netfetch.Options{
			Method:             "GET",
			Timeout:            10 * time.Second,
			ProxyURL:           activeFlags.proxy,
			InsecureSkipVerify: activeFlags.insecure,
			FollowRedirects:    false,
		})
		result := probecatalog.Result{Endpoint: endpoint}
		if err != nil {
			result.Error = err.Error()
			logger.Warn("active probe failed", zap.String("endpoint", endpoint), zap.Error(err))
		} else {
			result.Status = resp.Status
			result.ResponseSize = len(resp.Body)
			logger.Info("active probe",
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.Status),
				zap.Int("size", len(resp.Body)))
		}
		results = append(results, result)
	}

	logger.Info("active probing finished", zap.Int("endpoints", len(results)))
	return nil
}

func loadEndpoints(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoints file: %w", err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}
	if len(out) == 0 {
		return nil, usageErrorf("endpoints file %s contains no entries", path)
	}
	return out, nil
}
