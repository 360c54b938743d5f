// Package config provides configuration defaults and target validation
// shared by the command-line interface and the server.
package config

import (
	"fmt"

	"github.com/leapstack-labs/snfsearch/internal/store"
)

// ValidateTarget checks that the target names a registered store adapter.
func ValidateTarget(t *store.Config) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	_, err := store.Lookup(t.Type)
	return err
}
