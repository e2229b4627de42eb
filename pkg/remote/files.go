package remote

import (
	"fmt"
	"os"
	"path"

	"github.com/pkg/sftp"
)

// sftpClient lazily creates the shared SFTP client over the connection.
func (c *Client) sftpClient() (*sftp.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sftpc != nil {
		return c.sftpc, nil
	}
	if c.client == nil {
		return nil, &TransportError{Op: "sftp", Err: fmt.Errorf("not connected")}
	}
	client, err := sftp.NewClient(c.client)
	if err != nil {
		return nil, &TransportError{Op: "sftp", Err: fmt.Errorf("creating SFTP client: %w", err)}
	}
	c.sftpc = client
	return c.sftpc, nil
}

// WriteFile writes data to path on the remote host, creating parent
// directories as needed.
func (c *Client) WriteFile(remotePath string, data []byte, mode os.FileMode) error {
	client, err := c.sftpClient()
	if err != nil {
		return err
	}
	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := client.MkdirAll(dir); err != nil {
			return &TransportError{Op: "write", Err: fmt.Errorf("creating remote directory %s: %w", dir, err)}
		}
	}
	f, err := client.Create(remotePath)
	if err != nil {
		return &TransportError{Op: "write", Err: fmt.Errorf("creating %s: %w", remotePath, err)}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return &TransportError{Op: "write", Err: fmt.Errorf("writing %s: %w", remotePath, err)}
	}
	if err := f.Close(); err != nil {
		return &TransportError{Op: "write", Err: fmt.Errorf("closing %s: %w", remotePath, err)}
	}
	if err := client.Chmod(remotePath, mode); err != nil {
		return &TransportError{Op: "write", Err: fmt.Errorf("setting mode on %s: %w", remotePath, err)}
	}
	return nil
}

// FileExists reports whether path exists on the remote host.
func (c *Client) FileExists(remotePath string) (bool, error) {
	client, err := c.sftpClient()
	if err != nil {
		return false, err
	}
	if _, err := client.Stat(remotePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &TransportError{Op: "stat", Err: fmt.Errorf("statting %s: %w", remotePath, err)}
	}
	return true, nil
}

// RemoveFile deletes path on the remote host.
func (c *Client) RemoveFile(remotePath string) error {
	client, err := c.sftpClient()
	if err != nil {
		return err
	}
	if err := client.Remove(remotePath); err != nil {
		return &TransportError{Op: "remove", Err: fmt.Errorf("removing %s: %w", remotePath, err)}
	}
	return nil
}
