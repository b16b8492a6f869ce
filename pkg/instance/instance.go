package instance

import (
	"os"

	"github.com/angelmondragon/marketplace-ledger/pkg/env"
)

const defaultID = "local"

// GetID returns the process instance identifier used in logs and lock owners.
// MARKETPLACE_INSTANCE_ID wins, then the platform dyno name, then the host name.
func GetID() string {
	if id := env.First("MARKETPLACE_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
