package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/connect-four/internal/config"
	"github.com/DoyleJ11/connect-four/internal/httpapi"
	"github.com/DoyleJ11/connect-four/internal/session"
	"github.com/DoyleJ11/connect-four/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, useConsole, err := parseConfig(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	zc := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "bad log level %q: %v\n", cfg.LogLevel, err)
		return exitConfig
	}
	zc.Level = level
	base, err := zc.Build()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	defer base.Sync()
	log := base.With(zap.String("role", string(cfg.Role)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = play(ctx, cfg, useConsole, stdin, stdout, log)
	code := exitCode(err)
	if code != exitOK {
		log.Error("peer stopped", zap.Error(err), zap.Int("exit_status", code))
	} else {
		log.Info("peer stopped")
	}
	return code
}

// parseConfig loads the layered configuration and applies flags on top.
func parseConfig(args []string, stderr io.Writer) (config.Config, bool, error) {
	fs := flag.NewFlagSet("peer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to a YAML config file")
	host := fs.Bool("host", false, "play red: listen and wait for the opponent")
	connect := fs.String("connect", "", "play yellow: connect to the host at this address")
	control := fs.String("control", "", "address of the local HTTP control surface (empty disables)")
	useConsole := fs.Bool("console", false, "play from this terminal")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, false, err
	}

	cfg, err := config.Load(*cfgPath, ".env")
	if err != nil {
		return cfg, false, err
	}

	if *host && *connect != "" {
		return cfg, false, fmt.Errorf("%w: -host and -connect are exclusive", config.ErrInvalidConfig)
	}
	if *host {
		cfg.Role = config.RoleHost
	}
	if *connect != "" {
		cfg.Role = config.RoleGuest
		cfg.PeerAddr = *connect
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "control" {
			cfg.ControlAddr = *control
		}
	})
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	return cfg, *useConsole, cfg.Validate()
}

// play connects to the opponent and runs the session until it ends, the
// user quits or the process is interrupted.
func play(ctx context.Context, cfg config.Config, withConsole bool, stdin io.Reader, stdout io.Writer, log *zap.Logger) error {
	var (
		conn *transport.Conn
		err  error
	)
	if cfg.Role == config.RoleHost {
		conn, err = transport.Host(ctx, cfg.ListenAddr, log.Named("transport"))
	} else {
		conn, err = transport.Dial(ctx, cfg.PeerAddr, log.Named("transport"))
	}
	if err != nil {
		return err
	}

	sess, err := session.New(ctx, conn, cfg.Role.Color(), cfg.Board.Engine(), log.Named("session"))
	if err != nil {
		conn.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-sess.Done():
			if err := sess.Err(); err != nil {
				return err
			}
			return errQuit
		case <-gctx.Done():
			sess.Close()
			return nil
		}
	})

	if cfg.ControlAddr != "" {
		srv := &http.Server{
			Addr:              cfg.ControlAddr,
			Handler:           httpapi.SetupRoutes(sess, log.Named("http")),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("control surface listening", zap.String("addr", cfg.ControlAddr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("control server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if withConsole {
		g.Go(func() error {
			return newConsole(sess, stdin, stdout).run(gctx)
		})
	}

	return g.Wait()
}
