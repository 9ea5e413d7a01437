package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // hcl files: vertices, edges and traversals

	LogFormat string
	LogLevel  string

	// Traversal names the traversal Run executes; empty runs all of them.
	Traversal string
	// Partitions overrides the partition count of the definitions when
	// positive.
	Partitions int

	ServerPort        int
	EvaluationTimeout time.Duration
	// AdjacencyCacheSize bounds the per-local-step neighbourhood cache; 0
	// disables it.
	AdjacencyCacheSize int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.Partitions < 0 {
		return nil, fmt.Errorf("invalid partitions %d: must not be negative", cfg.Partitions)
	}
	if cfg.ServerPort < 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.ServerPort)
	}
	if cfg.EvaluationTimeout < 0 {
		return nil, fmt.Errorf("invalid evaluation timeout %s: must not be negative", cfg.EvaluationTimeout)
	}
	if cfg.AdjacencyCacheSize < 0 {
		return nil, fmt.Errorf("invalid adjacency cache size %d: must not be negative", cfg.AdjacencyCacheSize)
	}
	return &cfg, nil
}
