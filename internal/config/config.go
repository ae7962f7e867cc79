// Package config holds the settings of one synchronization run:
// the source database, the event sink and the run itself.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sink kinds.
const (
	SinkSplunk = "splunk"
	SinkKafka  = "kafka"
	SinkMongo  = "mongo"
)

type SourceConfig struct {
	Driver   string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	EntityID int64
}

type SinkConfig struct {
	Kind     string
	Host     string
	Port     int
	Scheme   string
	Index    string
	User     string
	Password string
	Database string
	Insecure bool
}

type RunConfig struct {
	EventHost      string
	SourceType     string
	Source         string
	CheckpointFile string
	PageSize       int
	RoutineName    string
	RoutineFile    string
	Timeout        time.Duration
	LogFile        string
	DryRun         bool
	Verbose        bool
}

// Config holds all configuration for the application.
type Config struct {
	Source SourceConfig
	Sink   SinkConfig
	Run    RunConfig
}

// Validate reports every missing or invalid option at once.
func (c *Config) Validate() error {
	var errs []error
	required := []struct {
		name string
		val  string
	}{
		{"zhost", c.Source.Host},
		{"zdb", c.Source.Database},
		{"zuser", c.Source.User},
		{"zpass", c.Source.Password},
		{"shost", c.Sink.Host},
		{"sindex", c.Sink.Index},
		{"host", c.Run.EventHost},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			errs = append(errs, fmt.Errorf("--%s is required", r.name))
		}
	}
	if c.Source.EntityID <= 0 {
		errs = append(errs, errors.New("--zhostid is required and must be positive"))
	}
	switch c.Source.Driver {
	case "postgres", "sqlserver":
	default:
		errs = append(errs, fmt.Errorf("--zdriver must be postgres or sqlserver, got %q", c.Source.Driver))
	}
	switch c.Sink.Kind {
	case SinkSplunk, SinkKafka, SinkMongo:
	default:
		errs = append(errs, fmt.Errorf("--sink must be splunk, kafka or mongo, got %q", c.Sink.Kind))
	}
	if c.Sink.Kind == SinkSplunk && (c.Sink.User == "" || c.Sink.Password == "") {
		errs = append(errs, errors.New("--suser and --spass are required for splunk"))
	}
	if c.Run.PageSize <= 0 {
		errs = append(errs, errors.New("--page-size must be positive"))
	}
	if c.Run.CheckpointFile == "" {
		errs = append(errs, errors.New("--checkpoint-file must not be empty"))
	}
	return errors.Join(errs...)
}

// ApplyDefaults fills options whose default depends on other options.
func (c *Config) ApplyDefaults() {
	c.Source.Driver = NormalizeDriver(c.Source.Driver)
	c.Sink.Kind = strings.ToLower(strings.TrimSpace(c.Sink.Kind))
	if c.Sink.Port <= 0 {
		c.Sink.Port = DefaultSinkPort(c.Sink.Kind)
	}
}

// NormalizeDriver maps the accepted driver aliases onto postgres or
// sqlserver. Empty means postgres; unknown names are returned lowercased.
func NormalizeDriver(driver string) string {
	d := strings.ToLower(strings.TrimSpace(driver))
	switch d {
	case "", "postgres", "postgresql", "pgx":
		return "postgres"
	case "sqlserver", "mssql":
		return "sqlserver"
	}
	return d
}

// SourceDSN builds the connection string for the configured driver.
func (c *Config) SourceDSN() string {
	s := c.Source
	u := url.URL{
		User: url.UserPassword(s.User, s.Password),
		Host: hostPort(s.Host, s.Port),
	}
	q := url.Values{}
	switch s.Driver {
	case "sqlserver":
		u.Scheme = "sqlserver"
		q.Set("database", s.Database)
	default:
		u.Scheme = "postgres"
		u.Path = "/" + s.Database
		if s.SSLMode != "" {
			q.Set("sslmode", s.SSLMode)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// SplunkURL is the management API base of the sink.
func (c *Config) SplunkURL() string {
	scheme := c.Sink.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: hostPort(c.Sink.Host, c.Sink.Port)}).String()
}

// KafkaBrokers splits the sink host list; hosts without a port get --sport.
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, h := range strings.Split(c.Sink.Host, ",") {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(h); err != nil {
			h = hostPort(h, c.Sink.Port)
		}
		brokers = append(brokers, h)
	}
	return brokers
}

func (c *Config) MongoURI() string {
	u := url.URL{Scheme: "mongodb", Host: hostPort(c.Sink.Host, c.Sink.Port)}
	if c.Sink.User != "" {
		u.User = url.UserPassword(c.Sink.User, c.Sink.Password)
	}
	return u.String()
}

func hostPort(host string, port int) string {
	if port <= 0 {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
