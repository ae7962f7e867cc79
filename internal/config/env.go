package config

import (
	"os"
	"strconv"
	"time"
)

// Default ports per sink kind, used when --sport is not given.
var defaultSinkPorts = map[string]int{
	SinkSplunk: 8089,
	SinkKafka:  9092,
	SinkMongo:  27017,
}

// DefaultSinkPort returns the conventional port of a sink kind.
func DefaultSinkPort(kind string) int {
	return defaultSinkPorts[kind]
}

// FromEnv returns the defaults, overridden by environment variables
// (which main populates from an optional .env file). Flags override these.
func FromEnv() *Config {
	return &Config{
		Source: SourceConfig{
			Driver:   getEnv("ZABBIX_DB_DRIVER", "postgres"),
			Host:     os.Getenv("ZABBIX_DB_HOST"),
			Port:     getEnvInt("ZABBIX_DB_PORT", 0),
			Database: os.Getenv("ZABBIX_DB_NAME"),
			User:     os.Getenv("ZABBIX_DB_USER"),
			Password: os.Getenv("ZABBIX_DB_PASSWORD"),
			SSLMode:  os.Getenv("ZABBIX_DB_SSLMODE"),
			EntityID: int64(getEnvInt("ZABBIX_HOST_ID", 0)),
		},
		Sink: SinkConfig{
			Kind:     getEnv("SINK_KIND", SinkSplunk),
			Host:     os.Getenv("SINK_HOST"),
			Port:     getEnvInt("SINK_PORT", 0),
			Scheme:   getEnv("SINK_SCHEME", "https"),
			Index:    os.Getenv("SINK_INDEX"),
			User:     os.Getenv("SINK_USER"),
			Password: os.Getenv("SINK_PASSWORD"),
			Database: getEnv("SINK_DATABASE", "audit"),
			Insecure: getEnvBool("SINK_INSECURE", false),
		},
		Run: RunConfig{
			EventHost:      os.Getenv("EVENT_HOST"),
			SourceType:     getEnv("EVENT_SOURCETYPE", "zabbix-history"),
			Source:         getEnv("EVENT_SOURCE", "zabbix-db"),
			CheckpointFile: getEnv("CHECKPOINT_FILE", "/tmp/zabbixaudit"),
			PageSize:       getEnvInt("PAGE_SIZE", 10),
			RoutineName:    getEnv("ROUTINE_NAME", "get_history"),
			RoutineFile:    os.Getenv("ROUTINE_FILE"),
			Timeout:        getEnvDuration("RUN_TIMEOUT", 5*time.Minute),
			LogFile:        os.Getenv("LOG_FILE"),
		},
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
