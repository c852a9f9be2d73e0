package worker

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/ethereum-optimism/infra/kizu/types"
)

// IPCEnvVar names the environment variable holding the file descriptor a
// worker writes its records to. The control process sets it when it hands
// the write end of a pipe to the worker.
const IPCEnvVar = "KIZU_IPC_FD"

// Channel is the fire-and-forget message channel from a worker to the
// control process. Every record is one line of JSON.
type Channel struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewChannel writes records to w.
func NewChannel(w io.Writer) *Channel {
	c := &Channel{enc: json.NewEncoder(w)}
	if closer, ok := w.(io.Closer); ok {
		c.closer = closer
	}
	return c
}

// OpenChannel opens the channel inherited from the control process. When
// the process was not started by a pool, records go to stdout.
func OpenChannel() (*Channel, error) {
	raw, ok := os.LookupEnv(IPCEnvVar)
	if !ok || raw == "" {
		return &Channel{enc: json.NewEncoder(os.Stdout)}, nil
	}
	fd, err := strconv.Atoi(raw)
	if err != nil || fd < 0 {
		return nil, fmt.Errorf("invalid %s %q", IPCEnvVar, raw)
	}
	f := os.NewFile(uintptr(fd), "kizu-ipc")
	if f == nil {
		return nil, fmt.Errorf("invalid %s %q", IPCEnvVar, raw)
	}
	return NewChannel(f), nil
}

// Send writes a single record. Sends from concurrent goroutines never
// interleave within a line.
func (c *Channel) Send(r types.TestResults) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(r); err != nil {
		return fmt.Errorf("failed to send test results: %w", err)
	}
	return nil
}

// Close closes the underlying writer if it has one.
func (c *Channel) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
