package instance

import (
	"os"

	"github.com/pawpantry/storefront-api/pkg/env"
)

// GetID names the running process in logs. PAWPANTRY_INSTANCE_ID wins,
// then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("PAWPANTRY_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
