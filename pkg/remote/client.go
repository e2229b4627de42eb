package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
)

// Client is an SSH connection to one remote host. Commands get a session
// each; file operations share one lazily created SFTP client.
type Client struct {
	config *Config

	mu     sync.Mutex
	client *ssh.Client
	sftpc  *sftp.Client
}

// NewClient validates cfg and returns an unconnected client.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Client{config: cfg}, nil
}

// Connect establishes the SSH connection. It is idempotent while the
// connection is alive.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return nil
	}

	clientConfig, err := c.config.clientConfig()
	if err != nil {
		return &TransportError{Op: "connect", Err: err, IsAuthError: true}
	}

	address := c.config.Address()
	log.Debug().Str("address", address).Msg("establishing SSH connection")

	connChan := make(chan *ssh.Client, 1)
	errChan := make(chan error, 1)
	go func() {
		client, err := ssh.Dial("tcp", address, clientConfig)
		if err != nil {
			errChan <- err
			return
		}
		connChan <- client
	}()

	select {
	case <-ctx.Done():
		return &TransportError{Op: "connect", Err: ctx.Err()}
	case err := <-errChan:
		return &TransportError{Op: "connect", Err: err}
	case client := <-connChan:
		c.client = client
		log.Debug().Str("address", address).Msg("SSH connection established")
		return nil
	}
}

// Connected reports whether the client holds a connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

func (c *Client) conn() (*ssh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, &TransportError{Op: "session", Err: fmt.Errorf("not connected")}
	}
	return c.client, nil
}

// Run executes command on the remote host in a fresh session and blocks
// until it exits. A non-zero exit comes back as an *ssh.ExitError; transport
// failures come back as *TransportError. The command is not interrupted if
// ctx is cancelled — it runs to completion like any dispatched simulation.
func (c *Client) Run(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := c.conn()
	if err != nil {
		return err
	}
	session, err := conn.NewSession()
	if err != nil {
		return &TransportError{Op: "run", Err: fmt.Errorf("creating session: %w", err)}
	}
	defer session.Close()
	return session.Run(command)
}

// IsExitError reports whether err is a remote command's non-zero exit
// status rather than a transport failure.
func IsExitError(err error) bool {
	var exitErr *ssh.ExitError
	return errors.As(err, &exitErr)
}

// Close shuts down the SFTP client and the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.sftpc != nil {
		err = c.sftpc.Close()
		c.sftpc = nil
	}
	if c.client != nil {
		if cerr := c.client.Close(); cerr != nil && err == nil {
			err = cerr
		}
		c.client = nil
	}
	if err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}
