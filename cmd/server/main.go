package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/relaychat/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run loads the configuration, starts the room, the TCP acceptor and the
// optional WebSocket gateway, and blocks until a termination signal arrives.
// Any startup failure is returned before serving begins.
func run(args []string) error {
	_ = godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := parseFlags(args, &cfg, os.Stderr); err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	room := server.NewRoom(log, cfg.RoomOptions()...)
	go room.Run()

	listener, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Address(), err)
	}
	acceptor, err := server.NewAcceptor(listener, room, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)
	go func() {
		if err := acceptor.Run(ctx); err != nil {
			errChan <- fmt.Errorf("relay error: %w", err)
		}
	}()

	var httpServer *http.Server
	if cfg.WebSocketAddr != "" {
		gateway := server.NewGateway(room, cfg, log)
		httpServer = server.CreateServer(cfg.WebSocketAddr, server.SetupRoutes(gateway))
		go func() {
			if err := server.StartServer(httpServer, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("websocket gateway error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-errChan:
		return err
	}

	if httpServer != nil {
		_ = server.ShutdownServer(httpServer, shutdownTimeout, log)
	}
	_ = room.Shutdown(shutdownTimeout)
	log.Info("Relay stopped")
	return nil
}

// parseFlags applies the command line on top of cfg. Only the port can be
// set there; -h/--help prints usage and returns flag.ErrHelp.
func parseFlags(args []string, cfg *server.Config, output io.Writer) error {
	fs := flag.NewFlagSet("relay-server", flag.ContinueOnError)
	fs.SetOutput(output)

	port := uint(cfg.Port)
	fs.UintVar(&port, "port", port, "working port")
	fs.UintVar(&port, "p", port, "working port (shorthand)")
	fs.Usage = func() {
		fmt.Fprintln(output, "Usage: relay-server [--port|-p <port>]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if port > 65535 {
		return fmt.Errorf("%w: %d", server.ErrInvalidPort, port)
	}
	cfg.Port = int(port)
	return nil
}
