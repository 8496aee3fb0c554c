package main

import (
	"github.com/urfave/cli/v2"

	"lrusvc/internal/config"
)

const (
	configFlag    = "config"
	listenFlag    = "listen"
	capacityFlag  = "cache.capacity"
	datadirFlag   = "datadir"
	peerHostFlag  = "peer.host"
	peerPortFlag  = "peer.port"
	peerTLSFlag   = "peer.tls"
	logFormatFlag = "log.format"
	logLevelFlag  = "log.level"
)

// serviceFlags returns the flags of one service. peerEnv names the
// environment variable holding the peer's host name.
func serviceFlags(peerEnv, listen, peerPort string) []cli.Flag {
	return []cli.Flag{
		&cli.PathFlag{
			Name:    configFlag,
			Usage:   "TOML configuration file",
			EnvVars: []string{"CONFIG"},
		},
		&cli.StringFlag{
			Name:    listenFlag,
			Usage:   "HTTP listen address",
			Value:   listen,
			EnvVars: []string{"LISTEN"},
		},
		&cli.IntFlag{
			Name:    capacityFlag,
			Usage:   "Maximum number of cached entries",
			Value:   config.DefaultCacheCapacity,
			EnvVars: []string{"CACHECAPACITY"},
		},
		&cli.PathFlag{
			Name:    datadirFlag,
			Usage:   "Store directory (in-memory when empty)",
			EnvVars: []string{"DATADIR"},
		},
		&cli.StringFlag{
			Name:    peerHostFlag,
			Usage:   "Host name of the peer service",
			EnvVars: []string{peerEnv},
		},
		&cli.StringFlag{
			Name:    peerPortFlag,
			Usage:   "Port of the peer service (0 to omit)",
			Value:   peerPort,
			EnvVars: []string{peerEnv + "_PORT"},
		},
		&cli.BoolFlag{
			Name:  peerTLSFlag,
			Usage: "Reach the peer over HTTPS",
		},
		&cli.StringFlag{
			Name:  logFormatFlag,
			Usage: "Log format to use (auto|text|json)",
			Value: "auto",
		},
		&cli.StringFlag{
			Name:  logLevelFlag,
			Usage: "Minimum log level (debug|info|warn|error)",
			Value: "info",
		},
	}
}

// loadConfig builds the configuration from defaults, the optional file and
// then any flag or environment variable that was explicitly set.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default(ctx.String(listenFlag))
	cfg.Peer.Port = ctx.String(peerPortFlag)

	if path := ctx.Path(configFlag); path != "" {
		if err := config.Load(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if ctx.IsSet(listenFlag) {
		cfg.Listen = ctx.String(listenFlag)
	}
	if ctx.IsSet(capacityFlag) {
		cfg.CacheCapacity = ctx.Int(capacityFlag)
	}
	if ctx.IsSet(datadirFlag) {
		cfg.DataDir = ctx.Path(datadirFlag)
	}
	if ctx.IsSet(peerHostFlag) {
		cfg.Peer.Host = ctx.String(peerHostFlag)
	}
	if ctx.IsSet(peerPortFlag) {
		cfg.Peer.Port = ctx.String(peerPortFlag)
	}
	if ctx.IsSet(peerTLSFlag) {
		cfg.Peer.TLS = ctx.Bool(peerTLSFlag)
	}
	if ctx.IsSet(logFormatFlag) {
		cfg.Log.Format = ctx.String(logFormatFlag)
	}
	if ctx.IsSet(logLevelFlag) {
		cfg.Log.Level = ctx.String(logLevelFlag)
	}
	return cfg, cfg.Validate()
}
