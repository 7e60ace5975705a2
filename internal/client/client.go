// Package client implements the interactive relay client: it connects,
// introduces itself with a nickname, prints whatever the relay sends and
// forwards console lines to the relay.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
)

const readBufferSize = 128

// ErrEmptyName - returned when no nickname was given.
var ErrEmptyName = errors.New("client: nickname is required")

// Config holds the client settings. Flags given on the command line take
// precedence over the environment.
type Config struct {
	Host     string `envconfig:"RELAY_HOST" default:"localhost"`
	Port     int    `envconfig:"RELAY_PORT" default:"13"`
	Name     string `envconfig:"RELAY_NAME"`
	ReadOnly bool   `envconfig:"RELAY_READ_ONLY"`
	Colours  bool   `envconfig:"RELAY_COLOURS" default:"true"`
}

// LoadConfig reads the client configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Validate checks that a nickname is set and the port fits in 16 bits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Address returns the relay host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client is a connection to a relay.
type Client struct {
	cfg    Config
	out    io.Writer
	conn   net.Conn
	sendMu sync.Mutex
}

// New creates a Client that prints everything it receives to out.
func New(cfg Config, out io.Writer) *Client {
	return &Client{cfg: cfg, out: out}
}

// Connect dials the relay and sends the nickname, if any, as the first message.
func (c *Client) Connect(ctx context.Context) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Address())
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.cfg.Address(), err)
	}
	c.conn = conn
	c.status(color.FgGreen, "Successfully connected!\n")

	if c.cfg.Name != "" {
		if err := c.Send(c.cfg.Name); err != nil {
			return err
		}
	}
	return nil
}

// Send writes one line to the relay.
func (c *Client) Send(line string) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// Receive copies everything the relay sends to the output until the relay
// closes the connection. A clean close returns nil.
func (c *Client) Receive() error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			if _, werr := c.out.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("receiving message: %w", err)
		}
	}
}

// SendLines reads r line by line and sends each line to the relay until r
// is exhausted.
func (c *Client) SendLines(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := c.Send(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Close closes the connection to the relay.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) status(colour color.Color, text string) {
	if c.cfg.Colours {
		text = colour.Render(text)
	}
	_, _ = io.WriteString(c.out, text)
}
