package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
	ListConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type APIConfig interface {
	GetBaseURL() string
	GetRefreshPath() string
	GetHTTPTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	API
	Storage
	Lists
}

func New() Config {
	return mainConfig{}
}
