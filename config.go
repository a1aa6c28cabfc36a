package krpc

import (
	"fmt"
	"os"
	"strconv"
)

// Config configures Client construction. Zero-value fields are filled
// in by SetDefaults from the KRPC_HOST / KRPC_PORT / KRPC_STREAM_PORT /
// KRPC_CLIENTNAME environment variables, mirroring the convenience
// defaults other kRPC client libraries (including dazoe-krpcgo) offer
// so examples don't need to hardcode a server address.
type Config struct {
	Name       string
	Host       string
	RPCPort    int
	StreamPort int

	// RPCOnly skips the STREAM connection entirely. Stream-returning
	// procedures fail with ErrKindClient if used against such a
	// client.
	RPCOnly bool
}

const (
	defaultHost       = "127.0.0.1"
	defaultRPCPort    = 50000
	defaultStreamPort = 50001
	defaultClientName = "krpc-client-go"
)

// SetDefaults fills unset fields from environment variables, falling
// back to the kRPC server's own stock defaults.
func (c *Config) SetDefaults() error {
	if c.Name == "" {
		c.Name = envOr("KRPC_CLIENTNAME", defaultClientName)
	}
	if c.Host == "" {
		c.Host = envOr("KRPC_HOST", defaultHost)
	}
	if c.RPCPort == 0 {
		port, err := envIntOr("KRPC_PORT", defaultRPCPort)
		if err != nil {
			return err
		}
		c.RPCPort = port
	}
	if c.StreamPort == 0 {
		port, err := envIntOr("KRPC_STREAM_PORT", defaultStreamPort)
		if err != nil {
			return err
		}
		c.StreamPort = port
	}
	return nil
}

func (c Config) rpcAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.RPCPort)
}

func (c Config) streamAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.StreamPort)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("krpc: invalid %s: %w", key, err)
	}
	return n, nil
}
