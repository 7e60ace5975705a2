package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/joho/godotenv"

	"github.com/Tyrowin/relaychat/internal/client"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		color.Error.Println("Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	cfg, err := client.LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := parseFlags(args, &cfg, os.Stderr); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg, os.Stdout)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()

	received := make(chan error, 1)
	go func() {
		received <- c.Receive()
	}()
	if !cfg.ReadOnly {
		go func() {
			if err := c.SendLines(os.Stdin); err != nil {
				color.Error.Println("Error:", err)
			}
		}()
	}

	select {
	case err := <-received:
		return err
	case <-ctx.Done():
		return nil
	}
}

func parseFlags(args []string, cfg *client.Config, output io.Writer) error {
	fs := flag.NewFlagSet("relay-client", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.Host, "host", cfg.Host, "relay host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "relay port")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "nickname sent when connecting")
	fs.StringVar(&cfg.Name, "n", cfg.Name, "nickname (shorthand)")
	fs.BoolVar(&cfg.ReadOnly, "read-only", cfg.ReadOnly, "only print incoming messages")
	fs.BoolVar(&cfg.ReadOnly, "r", cfg.ReadOnly, "read-only mode (shorthand)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	return cfg.Validate()
}
