package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/flagx"
	"github.com/dmitrijs2005/travelbuddy/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// use timex.Duration so they can be written as "15s".
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	MaxImageEdge       int            `json:"max_image_edge"`
	JPEGQuality        int            `json:"jpeg_quality"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Fields missing from the file keep their current value.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.MaxImageEdge != 0 {
		cfg.MaxImageEdge = jc.MaxImageEdge
	}
	if jc.JPEGQuality != 0 {
		cfg.JPEGQuality = jc.JPEGQuality
	}
}
