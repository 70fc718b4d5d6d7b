// Command remconsd is a remote telnet console daemon. It accepts
// telnet connections, registers each one as a local console service
// and runs a shell behind it on a pty.
package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/remcons/remconsd/internal/api"
	"github.com/remcons/remconsd/internal/config"
	"github.com/remcons/remconsd/internal/logging"
	"github.com/remcons/remconsd/internal/monitoring"
	"github.com/remcons/remconsd/internal/server"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to TOML config file")
	listen := pflag.StringP("listen", "l", "", "telnet listen address (host:port), overrides config")
	admin := pflag.String("admin", "", "admin API listen address (host:port), overrides config")
	logLevel := pflag.String("log-level", "", "log level: debug, info, warn, error")
	logDev := pflag.Bool("log-dev", false, "human-readable console logging")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString("remconsd: " + err.Error() + "\n")
		os.Exit(1)
	}
	applyFlags(cfg, *listen, *admin, *logLevel, *logDev)

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		os.Stderr.WriteString("remconsd: logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	promReg := prometheus.NewRegistry()
	metrics := monitoring.New(promReg)

	srv := server.New(cfg, log, metrics)

	errChan := make(chan error, 2)
	go func() {
		errChan <- srv.Run()
	}()

	var adminSrv *api.Server
	if cfg.Admin.Enabled {
		adminSrv = api.New(srv, metrics, promReg, log)
		go func() {
			errChan <- adminSrv.Run(net.JoinHostPort(cfg.Admin.Host, cfg.Admin.Port))
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			log.Error("server failed", zap.Error(err))
		}
	}

	if adminSrv != nil {
		if err := adminSrv.Shutdown(); err != nil {
			log.Warn("admin shutdown", zap.Error(err))
		}
	}
	if err := srv.Close(); err != nil {
		log.Warn("listener close", zap.Error(err))
	}
}

// applyFlags lets CLI flags override individual config values.
func applyFlags(cfg *config.Config, listen, admin, logLevel string, logDev bool) {
	if listen != "" {
		if host, port, err := net.SplitHostPort(listen); err == nil {
			cfg.Listen.Host = host
			cfg.Listen.Port = port
		}
	}
	if admin != "" {
		if host, port, err := net.SplitHostPort(admin); err == nil {
			cfg.Admin.Host = host
			cfg.Admin.Port = port
		}
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logDev {
		cfg.Logging.Development = true
	}
}
