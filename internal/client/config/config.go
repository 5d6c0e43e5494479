package config

import "time"

// Config holds runtime settings for the travelbuddy terminal client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - RequestTimeout: deadline of a single unary call. Verification calls
//     wait for the face service and get a longer deadline of their own.
//   - MaxImageEdge: images are downscaled so that neither side exceeds it.
//   - JPEGQuality: quality of the re-encoded upload (1..100).
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	MaxImageEdge       int
	JPEGQuality        int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 15 * time.Second
	c.MaxImageEdge = 1600
	c.JPEGQuality = 85
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
