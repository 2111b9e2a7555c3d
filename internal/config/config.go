package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"train-tracker/internal/route"
	"train-tracker/internal/source"
)

type Config struct {
	Trains            []string
	SourceType        string
	SourceURLTemplate string // {train} and {date} are substituted per request
	SourceHeaders     map[string]string
	RefreshInterval   time.Duration
	FetchTimeout      time.Duration
	FetchRPS          float64
	Location          *time.Location

	DatabaseURL       string // empty disables persistence
	NATSURL           string // empty disables publishing
	NATSSubjectPrefix string
	LogNATSSubjects   bool
	MetricsAddr       string
	HTTPAddr          string
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Trains = splitList(getenvDefault("TRAINS", route.WestboundTrain+","+route.EastboundTrain))
	for _, t := range cfg.Trains {
		if _, ok := route.DirectionFor(t); !ok {
			return nil, fmt.Errorf("invalid TRAINS entry: %q", t)
		}
	}
	if len(cfg.Trains) == 0 {
		return nil, fmt.Errorf("TRAINS must name at least one train")
	}

	cfg.SourceType = getenvDefault("SOURCE_TYPE", source.TypeTimetable)
	if _, err := source.ForName(cfg.SourceType, nil); err != nil {
		return nil, fmt.Errorf("invalid SOURCE_TYPE: %v", err)
	}
	cfg.SourceURLTemplate = os.Getenv("SOURCE_URL_TEMPLATE")
	if cfg.SourceURLTemplate == "" {
		return nil, fmt.Errorf("SOURCE_URL_TEMPLATE must be set (e.g. https://example.org/status?train={train}&date={date})")
	}
	cfg.SourceHeaders = parseHeaders(os.Getenv("SOURCE_HEADERS"))

	// Refresh interval (seconds)
	if v := os.Getenv("REFRESH_INTERVAL_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, fmt.Errorf("invalid REFRESH_INTERVAL_SEC: %q", v)
		}
		cfg.RefreshInterval = time.Duration(sec) * time.Second
	} else {
		cfg.RefreshInterval = 60 * time.Second
	}

	// Per-request fetch timeout (seconds)
	if v := os.Getenv("FETCH_TIMEOUT_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, fmt.Errorf("invalid FETCH_TIMEOUT_SEC: %q", v)
		}
		cfg.FetchTimeout = time.Duration(sec) * time.Second
	} else {
		cfg.FetchTimeout = 10 * time.Second
	}

	// Upstream request rate
	if v := os.Getenv("FETCH_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid FETCH_RPS: %q", v)
		}
		cfg.FetchRPS = f
	} else {
		cfg.FetchRPS = 1.0
	}

	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars when PGDATABASE is set
	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN"))
	if cfg.DatabaseURL == "" {
		if db := os.Getenv("PGDATABASE"); db != "" {
			host := getenvDefault("PGHOST", "127.0.0.1")
			port := getenvDefault("PGPORT", "5432")
			user := getenvDefault("PGUSER", "postgres")
			pass := os.Getenv("PGPASSWORD")
			sslmode := getenvDefault("PGSSLMODE", "disable")
			if pass != "" {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		}
	}

	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "trains")

	// Debug logging for NATS publish subjects
	if v := os.Getenv("LOG_NATS_SUBJECTS"); v != "" {
		cfg.LogNATSSubjects = parseBool(v)
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	// Status JSON listen address (e.g., ":8080"). Empty disables it.
	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")

	// Time zone the service day is computed in
	tzName := getenvDefault("TZ", "")
	if tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// SourceURL expands the source URL template for one train and service day.
func (c *Config) SourceURL(trainID string, day time.Time) string {
	r := strings.NewReplacer("{train}", trainID, "{date}", day.Format("2006-01-02"))
	return r.Replace(c.SourceURLTemplate)
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseHeaders reads "Key: value; Other: value".
func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
