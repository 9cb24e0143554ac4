package config

import (
	"fmt"
	"time"
)

// ServerConfig is the configuration view of the development sync server.
type ServerConfig struct {
	HTTPAddress    string
	GRPCAddress    string
	RequestTimeout time.Duration
	DatabaseDSN    string
	HashKey        string
	TokenSignKey   string
	TokenIssuer    string
	TokenDuration  time.Duration
	Version        string
}

// GetServerConfig builds and validates the server config view.
func GetServerConfig(flags *Flags) (*ServerConfig, error) {
	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := &ServerConfig{
		HTTPAddress:    cfg.Server.HTTPAddress,
		GRPCAddress:    cfg.Server.GRPCAddress,
		RequestTimeout: cfg.Server.RequestTimeout,
		DatabaseDSN:    cfg.Server.DatabaseDSN,
		HashKey:        cfg.App.HashKey,
		TokenSignKey:   cfg.App.TokenSignKey,
		TokenIssuer:    cfg.App.TokenIssuer,
		TokenDuration:  cfg.App.TokenDuration,
		Version:        cfg.App.Version,
	}
	return serverCfg, serverCfg.validate()
}
