package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WEBPROBE_"

// ApplyEnv overlays WEBPROBE_* variables read through getenv. Empty
// values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	var err error
	boolean := func(name string, dst *bool) {
		v := getenv(EnvPrefix + name)
		if v == "" || err != nil {
			return
		}
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = fmt.Errorf("%w: %s%s=%q: not a boolean", ErrInvalidConfig, EnvPrefix, name, v)
			return
		}
		*dst = b
	}

	str("TARGET", &c.Target)
	if v := getenv(EnvPrefix + "MAX_PAGES"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			return fmt.Errorf("%w: %sMAX_PAGES=%q: not an integer", ErrInvalidConfig, EnvPrefix, v)
		}
		c.MaxPages = n
	}
	if v := getenv(EnvPrefix + "TIMEOUT"); v != "" {
		d, perr := ParseTimeout(v)
		if perr != nil {
			return fmt.Errorf("%w: %sTIMEOUT: %v", ErrInvalidConfig, EnvPrefix, perr)
		}
		c.Timeout = d
	}
	if v := getenv(EnvPrefix + "EXCLUDE"); v != "" {
		c.Exclude = strings.Split(v, ",")
	}

	str("USER_AGENT", &c.HTTP.UserAgent)
	str("PROXY", &c.HTTP.Proxy)
	boolean("VERIFY_TLS", &c.HTTP.VerifyTLS)

	str("FORMAT", &c.Output.Format)
	str("OUTPUT", &c.Output.File)
	str("LANG", &c.Output.Lang)
	str("TEMPLATE", &c.Output.Template)
	boolean("ANNOTATE", &c.Output.Annotate)
	boolean("NO_COLOR", &c.Output.NoColor)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	str("METRICS_ADDR", &c.Metrics.Addr)
	str("OTEL_ENDPOINT", &c.Telemetry.Endpoint)
	boolean("OTEL_INSECURE", &c.Telemetry.Insecure)

	str("AMQP_URL", &c.Queue.URL)
	str("JOB_QUEUE", &c.Queue.JobQueue)
	str("RESULT_QUEUE", &c.Queue.ResultQueue)

	str("S3_BUCKET", &c.Storage.Bucket)
	str("S3_PREFIX", &c.Storage.Prefix)
	str("S3_REGION", &c.Storage.Region)
	str("S3_ENDPOINT", &c.Storage.Endpoint)
	return err
}

// ParseTimeout accepts a Go duration ("7s", "1500ms") or a bare number
// of seconds ("7").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return d, nil
}
