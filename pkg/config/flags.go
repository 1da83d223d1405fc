package config

import (
	"flag"
	"strings"
	"time"
)

// stringList is a repeatable or comma-separated flag.
type stringList struct{ dst *[]string }

func (s stringList) String() string {
	if s.dst == nil {
		return ""
	}
	return strings.Join(*s.dst, ",")
}

func (s stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s.dst = append(*s.dst, part)
		}
	}
	return nil
}

// timeoutValue accepts ParseTimeout syntax.
type timeoutValue struct{ dst *time.Duration }

func (t timeoutValue) String() string {
	if t.dst == nil {
		return ""
	}
	return t.dst.String()
}

func (t timeoutValue) Set(v string) error {
	d, err := ParseTimeout(v)
	if err != nil {
		return err
	}
	*t.dst = d
	return nil
}

// RegisterScanFlags binds the scan flags to c. Current field values
// become the flag defaults, so flags override whatever c was resolved
// from.
func (c *Config) RegisterScanFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Target, "target", c.Target, "Target URL (scheme defaults to http)")
	fs.StringVar(&c.Target, "u", c.Target, "Target URL (alias)")
	fs.IntVar(&c.MaxPages, "max-pages", c.MaxPages, "Maximum pages to crawl")
	fs.Var(timeoutValue{&c.Timeout}, "timeout", "Per-request timeout (seconds or duration)")
	fs.Var(stringList{&c.Exclude}, "exclude", "Regex of links not to crawl (repeatable)")

	c.registerHTTPFlags(fs)
	c.registerOutputFlags(fs)
	c.RegisterLogFlags(fs)

	fs.StringVar(&c.Metrics.Addr, "metrics-addr", c.Metrics.Addr, "Serve Prometheus metrics on this address")
	fs.StringVar(&c.Telemetry.Endpoint, "otel-endpoint", c.Telemetry.Endpoint, "OTLP gRPC endpoint for traces")
	fs.BoolVar(&c.Telemetry.Insecure, "otel-insecure", c.Telemetry.Insecure, "Disable TLS to the OTLP endpoint")
	fs.StringVar(&c.Storage.Bucket, "s3-bucket", c.Storage.Bucket, "Upload the report to this S3 bucket")
	fs.StringVar(&c.Storage.Prefix, "s3-prefix", c.Storage.Prefix, "Key prefix for uploaded reports")
}

// RegisterCrawlFlags binds the subset used by the crawl command.
func (c *Config) RegisterCrawlFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Target, "target", c.Target, "Target URL (scheme defaults to http)")
	fs.StringVar(&c.Target, "u", c.Target, "Target URL (alias)")
	fs.IntVar(&c.MaxPages, "max-pages", c.MaxPages, "Maximum pages to crawl")
	fs.Var(timeoutValue{&c.Timeout}, "timeout", "Per-request timeout (seconds or duration)")
	fs.Var(stringList{&c.Exclude}, "exclude", "Regex of links not to crawl (repeatable)")
	c.registerHTTPFlags(fs)
	c.RegisterLogFlags(fs)
}

// RegisterWorkerFlags binds the queue worker flags.
func (c *Config) RegisterWorkerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Queue.URL, "amqp-url", c.Queue.URL, "AMQP broker URL")
	fs.StringVar(&c.Queue.JobQueue, "job-queue", c.Queue.JobQueue, "Queue to consume scan jobs from")
	fs.StringVar(&c.Queue.ResultQueue, "result-queue", c.Queue.ResultQueue, "Queue to publish reports to")
	fs.IntVar(&c.Queue.Prefetch, "prefetch", c.Queue.Prefetch, "Jobs processed concurrently")
	fs.IntVar(&c.MaxPages, "max-pages", c.MaxPages, "Default maximum pages per job")
	fs.Var(timeoutValue{&c.Timeout}, "timeout", "Default per-request timeout")
	fs.StringVar(&c.Storage.Bucket, "s3-bucket", c.Storage.Bucket, "Upload reports to this S3 bucket")
	fs.StringVar(&c.Storage.Prefix, "s3-prefix", c.Storage.Prefix, "Key prefix for uploaded reports")
	fs.StringVar(&c.Storage.Region, "s3-region", c.Storage.Region, "S3 region")
	fs.StringVar(&c.Storage.Endpoint, "s3-endpoint", c.Storage.Endpoint, "S3-compatible endpoint URL")
	fs.StringVar(&c.Output.Lang, "lang", c.Output.Lang, "Severity label language: en, pt")
	fs.StringVar(&c.Metrics.Addr, "metrics-addr", c.Metrics.Addr, "Serve Prometheus metrics on this address")
	c.registerHTTPFlags(fs)
	c.RegisterLogFlags(fs)
}

// RegisterLogFlags binds the logging flags.
func (c *Config) RegisterLogFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "Log format: text, json")
}

func (c *Config) registerHTTPFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.HTTP.Proxy, "proxy", c.HTTP.Proxy, "HTTP or SOCKS5 proxy URL")
	fs.StringVar(&c.HTTP.UserAgent, "user-agent", c.HTTP.UserAgent, "User-Agent header")
	fs.BoolVar(&c.HTTP.VerifyTLS, "verify-tls", c.HTTP.VerifyTLS, "Verify TLS certificates (off by default)")
	fs.BoolVar(&c.HTTP.NoFollowRedirects, "no-redirects", c.HTTP.NoFollowRedirects, "Do not follow redirects")
}

func (c *Config) registerOutputFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Output.Format, "format", c.Output.Format, "Output format: table, json, jsonl, yaml, csv, markdown, pdf, xlsx, template")
	fs.StringVar(&c.Output.File, "output", c.Output.File, "Write the report to this file")
	fs.StringVar(&c.Output.File, "o", c.Output.File, "Output file (alias)")
	fs.BoolVar(&c.Output.Pretty, "pretty", c.Output.Pretty, "Indent JSON output")
	fs.BoolVar(&c.Output.Annotate, "annotate", c.Output.Annotate, "Attach severity estimates")
	fs.StringVar(&c.Output.Lang, "lang", c.Output.Lang, "Severity label language: en, pt")
	fs.StringVar(&c.Output.Template, "template", c.Output.Template, "Template file or built-in name for -format template")
	fs.BoolVar(&c.Output.NoColor, "no-color", c.Output.NoColor, "Disable colored output")
}
