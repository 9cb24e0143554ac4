package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// NetAddress holds structured network address data for host and port.
// It implements the pflag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// Flags holds configuration values bound to a flag set. Values are read
// after the flag set has been parsed.
type Flags struct {
	cfg           StructuredConfig
	serverAddress NetAddress
	grpcAddress   NetAddress
}

// BindFlags registers all configuration flags on fs.
//
// Flags:
//
//	-c/--config json file path with configs
//	--env-file .env file path
//	-d/--dsn local database DSN
//	--remote primary sync endpoint address
//	--direct direct fallback endpoint address
//	--remote-grpc gRPC sync endpoint address
//	--protocol primary transport (http|grpc)
//	--request-timeout request timeout (e.g., "15s")
//	--hash-key security hash key
//	--app-version reported application version
//	--log-file rotating log file
//	--sync-interval background sync period
//	--batch-size harvest batch size per table
//	-a/--address dev server address in format [host]:[port]
//	--grpc-address dev server gRPC address in format [host]:[port]
//	--token-sign-key dev server token signing key
//	--server-dsn dev server PostgreSQL DSN (empty keeps records in memory)
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	c := &f.cfg

	fs.StringVarP(&c.JSONFilePath, "config", "c", "", "JSON config file path")
	fs.StringVar(&c.DotEnvPath, "env-file", "", ".env file path")
	fs.StringVarP(&c.Storage.DB.DSN, "dsn", "d", "", "Local database DSN")

	fs.StringVar(&c.Adapter.HTTPAddress, "remote", "", "Primary sync endpoint address")
	fs.StringVar(&c.Adapter.DirectAddress, "direct", "", "Direct fallback endpoint address")
	fs.StringVar(&c.Adapter.GRPCAddress, "remote-grpc", "", "gRPC sync endpoint address")
	fs.StringVar(&c.Adapter.Protocol, "protocol", "", "Primary transport: http or grpc")
	fs.DurationVar(&c.Adapter.RequestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s)")

	fs.StringVar(&c.App.HashKey, "hash-key", "", "Security hash key")
	fs.StringVar(&c.App.Version, "app-version", "", "Reported application version")
	fs.StringVar(&c.App.LogFile, "log-file", "", "Rotating log file path")
	fs.StringVar(&c.App.TokenSignKey, "token-sign-key", "", "Token signing key")

	fs.DurationVar(&c.Workers.SyncInterval, "sync-interval", 0, "Background sync interval")
	fs.IntVar(&c.Sync.HarvestBatchSize, "batch-size", 0, "Harvest batch size per table")

	fs.VarP(&f.serverAddress, "address", "a", "Dev server address host:port")
	fs.Var(&f.grpcAddress, "grpc-address", "Dev server gRPC address host:port")
	fs.StringVar(&c.Server.DatabaseDSN, "server-dsn", "", "Dev server PostgreSQL DSN")

	return f
}

// Config returns the flag values as a config ready for merging.
func (f *Flags) Config() *StructuredConfig {
	cfg := f.cfg
	cfg.Server.HTTPAddress = f.serverAddress.String()
	cfg.Server.GRPCAddress = f.grpcAddress.String()
	return &cfg
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}

// Type implements pflag.Value.
func (a *NetAddress) Type() string {
	return "address"
}
