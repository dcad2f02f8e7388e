package internal

import (
	"strings"
	"time"
)

type Config struct {
	BufferSize        int           `env:"BUFFER_SIZE,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	Host              string        `env:"HOST,required=true"`
	Port              int           `env:"PORT,required=true"`
	DebugPort         int           `env:"DEBUG_PORT"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,required=true"`
	DispatchInterval  time.Duration `env:"DISPATCH_INTERVAL,required=true"`
	DispatchBatchSize int           `env:"DISPATCH_BATCH_SIZE,required=true"`
	PollInterval      time.Duration `env:"POLL_INTERVAL,required=true"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,required=true"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,required=true"`
	WorkerPoolURL     string        `env:"WORKER_POOL_URL,required=true"`
	WorkerPoolTimeout time.Duration `env:"WORKER_POOL_TIMEOUT,required=true"`
	ActorTokenSecret  string        `env:"ACTOR_TOKEN_SECRET,required=true"`
	ActorTokenTTL     time.Duration `env:"ACTOR_TOKEN_TTL,required=true"`
	// RedFlagTerms is a comma-separated clinical keyword list scanned in
	// every ingested transcript.
	RedFlagTerms string `env:"RED_FLAG_TERMS"`
}

func (c Config) RedFlagTermList() []string {
	if strings.TrimSpace(c.RedFlagTerms) == "" {
		return nil
	}

	var terms []string
	for _, term := range strings.Split(c.RedFlagTerms, ",") {
		if trimmed := strings.TrimSpace(term); trimmed != "" {
			terms = append(terms, trimmed)
		}
	}
	return terms
}
