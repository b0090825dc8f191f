package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port      string
	Neo4jURI  string
	Neo4jUser string
	Neo4jPass string
	LLMURL    string
	LLMModel  string
	ReposPath string

	// Pipeline knobs
	MaxFiles      int
	LLMTimeout    time.Duration
	RerankEnabled bool
	ReviewEnabled bool
	Extractor     string // "heuristic" or "treesitter"
}

func Load() *Config {
	return &Config{
		Port:          getEnv("BACKEND_PORT", "3001"),
		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPass:     getEnv("NEO4J_PASSWORD", "bugscope_password"),
		LLMURL:        getEnv("LLM_URL", "http://localhost:8090"),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		ReposPath:     getEnv("REPOS_PATH", "./repos"),
		MaxFiles:      getEnvInt("MAX_FILES", 15),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		RerankEnabled: getEnvBool("RERANK_ENABLED", true),
		ReviewEnabled: getEnvBool("REVIEW_ENABLED", true),
		Extractor:     getEnv("EXTRACTOR", "heuristic"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
