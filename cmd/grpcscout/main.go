// Command grpcscout is a thin shim over the discovery engine: it invokes
// engine commands and prints their JSON envelopes on stdout. All protocol
// and concurrency logic lives in the internal packages.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strconv"

	"github.com/grpcscout/grpcscout/internal/app"
	"github.com/grpcscout/grpcscout/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) (err error) {
	cfg := app.LoadConfig(os.Getenv("GRPCSCOUT_CONFIG"))

	logger, logErr := logging.InitLogger("grpcscout", cfg.Debug)
	if logErr != nil {
		// Fall back to stderr rather than refusing to start.
		logger = logging.NewStderrLogger(cfg.Debug)
		logger.Warn("file logging unavailable", slog.Any("error", logErr))
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	engine := app.New(cfg, logger)
	ctx := context.Background()

	switch args[0] {
	case "scan":
		emit(engine.ScanLocalhostServices(ctx))
		return nil

	case "discover":
		host, port, useTLS, err := targetArgs(args[1:])
		if err != nil {
			return err
		}
		resp := engine.ConnectGRPC(ctx, host, port, useTLS)
		if !resp.Success {
			emit(resp)
			return nil
		}
		emit(engine.DiscoverServices(ctx))
		emit(engine.DisconnectGRPC())
		return nil

	case "methods":
		if len(args) < 4 {
			return fmt.Errorf("usage: grpcscout methods <host> <port> <service> [tls]")
		}
		host, port, _, err := targetArgs(args[1:3])
		if err != nil {
			return err
		}
		useTLS := len(args) > 4 && args[4] == "tls"
		resp := engine.ConnectGRPC(ctx, host, port, useTLS)
		if !resp.Success {
			emit(resp)
			return nil
		}
		emit(engine.EnumerateServiceMethods(ctx, args[3]))
		emit(engine.DisconnectGRPC())
		return nil

	case "health":
		host, port, _, err := targetArgs(args[1:])
		if err != nil {
			return err
		}
		emit(engine.HealthCheckService(ctx, host, port))
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// targetArgs parses "<host> <port> [tls]" argument lists.
func targetArgs(args []string) (host string, port int, useTLS bool, err error) {
	if len(args) < 2 {
		return "", 0, false, fmt.Errorf("expected <host> <port>")
	}
	port, err = strconv.Atoi(args[1])
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, false, fmt.Errorf("invalid port %q", args[1])
	}
	useTLS = len(args) > 2 && args[2] == "tls"
	return args[0], port, useTLS, nil
}

func emit(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: grpcscout <command> [args]

commands:
  scan                                 sweep localhost candidate ports for gRPC services
  discover <host> <port> [tls]        connect and list services via reflection
  methods <host> <port> <service> [tls]  enumerate a service's methods
  health <host> <port>                probe one endpoint and report health`)
}
