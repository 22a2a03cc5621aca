package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/crawlvector"
	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/injector"
	"github.com/invaen/ricochet/internal/payloadset"
	"github.com/invaen/ricochet/internal/ratelimit"
	"github.com/invaen/ricochet/internal/reqparse"
)

var injectFlags struct {
	targetURL   string
	param       string
	requestFile string
	payload     string
	payloadFile string
	context     string
	callbackURL string
	rate        float64
	timeout     float64
	proxy       string
	insecure    bool
	dryRun      bool
	useHTTPS    bool
	fromCrawl   string
}

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Inject out-of-band callback payloads into a request's parameters",
	RunE:  runInject,
}

func init() {
	rootCmd.AddCommand(injectCmd)
	f := injectCmd.Flags()
	f.StringVarP(&injectFlags.targetURL, "url", "u", "", "target URL (with -p)")
	f.StringVarP(&injectFlags.param, "param", "p", "", "single query parameter name to inject (with -u)")
	f.StringVarP(&injectFlags.requestFile, "request-file", "r", "", "Burp-style raw request file")
	f.StringVar(&injectFlags.payload, "payload", "{{CALLBACK}}", "payload template, or builtin:<tag>")
	f.StringVar(&injectFlags.payloadFile, "payloads", "", "file of payload templates, one per line")
	f.StringVar(&injectFlags.context, "context", "", "vuln-class tag stored with the injection (e.g. sqli:mssql), used for severity/report classification (I7); defaults to the builtin: payload tag if any")
	f.StringVar(&injectFlags.callbackURL, "callback", "http://localhost:8080", "base callback URL to embed")
	f.Float64Var(&injectFlags.rate, "rate", 10, "requests per second")
	f.Float64Var(&injectFlags.timeout, "timeout", 10, "request timeout in seconds")
	f.StringVar(&injectFlags.proxy, "proxy", "", "HTTP proxy URL")
	f.BoolVar(&injectFlags.insecure, "insecure", false, "skip TLS certificate verification (opt-in bypass, §4.3)")
	f.BoolVar(&injectFlags.dryRun, "dry-run", false, "record injections but do not send requests")
	f.BoolVar(&injectFlags.useHTTPS, "https", false, "use https when rebuilding the target URL from -r")
	f.StringVar(&injectFlags.fromCrawl, "from-crawl", "", "JSON file of crawl-discovered vectors (§1 crawling itself is external)")
}

func runInject(cmd *cobra.Command, args []string) error {
	haveURLParam := injectFlags.targetURL != "" && injectFlags.param != ""
	haveRequestFile := injectFlags.requestFile != ""
	haveCrawl := injectFlags.fromCrawl != ""

	if !haveURLParam && !haveRequestFile && !haveCrawl {
		return usageErrorf("inject requires either -u URL -p PARAM, -r REQUEST_FILE, or --from-crawl JSON")
	}
	if (haveURLParam && haveRequestFile) || (haveURLParam && haveCrawl) || (haveRequestFile && haveCrawl) {
		return usageErrorf("inject accepts only one of -u/-p, -r, or --from-crawl")
	}

	payloads, contextTag, err := resolvePayloads()
	if err != nil {
		return err
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

	inj := injector.New(store, injectFlags.callbackURL)
	inj.Timeout = injectFlags.timeout
	inj.ProxyURL = injectFlags.proxy
	inj.InsecureSkipVerify = injectFlags.insecure
	inj.Context = contextTag
	if injectFlags.rate > 0 {
		inj.RateLimiter = ratelimit.New(injectFlags.rate, 1)
	}

	switch {
	case haveURLParam:
		return injectURLParam(inj, payloads)
	case haveRequestFile:
		return injectRequestFile(inj, payloads)
	default:
		return injectFromCrawl(inj, payloads)
	}
}

// resolvePayloads resolves the templates to inject and the vuln-class
// context tag to record with them: an explicit --context always wins,
// otherwise a builtin:<tag> payload reference supplies the tag (I7).
func resolvePayloads() ([]string, string, error) {
	if injectFlags.payloadFile != "" {
		f, err := os.Open(injectFlags.payloadFile)
		if err != nil {
			return nil, "", fmt.Errorf("open payload file: %w", err)
		}
		defer f.Close()
		out, err := injector.ReadPayloadFile(f)
		if err != nil {
			return nil, "", fmt.Errorf("read payload file: %w", err)
		}
		if len(out) == 0 {
			return nil, "", usageErrorf("payload file %s contains no templates", injectFlags.payloadFile)
		}
		return out, injectFlags.context, nil
	}

	if strings.HasPrefix(injectFlags.payload, "builtin:") {
		tag := strings.TrimPrefix(injectFlags.payload, "builtin:")
		templates, ok := payloadset.Lookup(tag)
		if !ok {
			return nil, "", usageErrorf("unknown builtin payload tag %q", tag)
		}
		contextTag := injectFlags.context
		if contextTag == "" {
			contextTag = tag
		}
		return templates, contextTag, nil
	}

	return []string{injectFlags.payload}, injectFlags.context, nil
}

func injectURLParam(inj *injector.Injector, payloads []string) error {
	parsed, err := url.Parse(injectFlags.targetURL)
	if err != nil {
		return usageErrorf("invalid URL %q: %v", injectFlags.targetURL, err)
	}
	q := parsed.Query()
	if _, ok := q[injectFlags.param]; !ok {
		q.Set(injectFlags.param, "")
	}
	parsed.RawQuery = q.Encode()

	req := &reqparse.ParsedRequest{
		Method:      "GET",
		Path:        parsed.RequestURI(),
		HTTPVersion: "HTTP/1.1",
		Headers:     map[string]string{"Host": parsed.Host},
		Host:        parsed.Host,
	}

	for _, payload := range payloads {
		res, found := inj.InjectSingleParam(req, injectFlags.param, payload, parsed.Scheme == "https", injectFlags.dryRun)
		if !found {
			logger.Warn("parameter not found in URL", zap.String("param", injectFlags.param))
			continue
		}
		logResult(*res)
	}
	return nil
}

func injectRequestFile(inj *injector.Injector, payloads []string) error {
	content, err := os.ReadFile(injectFlags.requestFile)
	if err != nil {
		return fmt.Errorf("read request file: %w", err)
	}
	req, err := reqparse.ParseFile(content)
	if err != nil {
		return usageErrorf("malformed request file: %v", err)
	}

	for _, payload := range payloads {
		for _, res := range inj.InjectAllVectors(req, payload, injectFlags.useHTTPS, injectFlags.dryRun) {
			logResult(res)
		}
	}
	return nil
}

func injectFromCrawl(inj *injector.Injector, payloads []string) error {
	f, err := os.Open(injectFlags.fromCrawl)
	if err != nil {
		return fmt.Errorf("open crawl vectors file: %w", err)
	}
	defer f.Close()

	crawlVectors, err := crawlvector.Load(f)
	if err != nil {
		return usageErrorf("malformed crawl vectors: %v", err)
	}
	if len(crawlVectors) == 0 {
		logger.Warn("no crawl vectors to inject")
		return nil
	}

	for _, cv := range crawlVectors {
		req, useHTTPS, err := requestFromCrawlVector(cv)
		if err != nil {
			logger.Warn("skipping crawl vector", zap.String("url", cv.URL), zap.Error(err))
			continue
		}
		for _, payload := range payloads {
			res, found := inj.InjectSingleParam(req, cv.ParamName, payload, useHTTPS, injectFlags.dryRun)
			if !found {
				logger.Warn("crawl parameter not found after request synthesis", zap.String("param", cv.ParamName))
				continue
			}
			logResult(*res)
		}
	}
	return nil
}

// requestFromCrawlVector synthesizes a minimal ParsedRequest around a
// single externally-discovered vector, since the crawl vector carries
// only the URL/method/parameter, not a full captured request.
func requestFromCrawlVector(cv crawlvector.Vector) (*reqparse.ParsedRequest, bool, error) {
	parsed, err := url.Parse(cv.URL)
	if err != nil {
		return nil, false, fmt.Errorf("invalid crawl vector URL: %w", err)
	}
	method := cv.Method
	if method == "" {
		method = "GET"
	}

	req := &reqparse.ParsedRequest{
		Method:      strings.ToUpper(method),
		Path:        parsed.RequestURI(),
		HTTPVersion: "HTTP/1.1",
		Headers:     map[string]string{"Host": parsed.Host},
		Host:        parsed.Host,
	}

	vec := cv.ToVector()
	switch vec.Location {
	case "query":
		q := parsed.Query()
		q.Set(cv.ParamName, "")
		parsed.RawQuery = q.Encode()
		req.Path = parsed.RequestURI()
	default:
		req.Headers["Content-Type"] = "application/x-www-form-urlencoded"
		req.Body = []byte(url.Values{cv.ParamName: {""}}.Encode())
	}

	return req, parsed.Scheme == "https", nil
}

func logResult(res injector.Result) {
	if res.Error != "" && !res.Success {
		logger.Error("injection failed",
			zap.String("token", res.Token),
			zap.String("url", res.URL),
			zap.String("error", res.Error))
		return
	}
	logger.Info("injected",
		zap.String("token", res.Token),
		zap.String("url", res.URL),
		zap.Int("status", res.Status),
		zap.Bool("dry_run", res.DryRun))
}
