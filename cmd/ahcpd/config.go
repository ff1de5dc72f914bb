package main

import (
	"fmt"
	"os"

	"github.com/ahcp-project/ahcpd/internal/ahcpconf"
	"github.com/ahcp-project/ahcpd/internal/wire"
)

// loadAuthorityConfig reads and decodes the raw TLV option body at path —
// a non-readable or malformed authority file is fatal, per spec.md §6.
func loadAuthorityConfig(path string) (cfg *ahcpconf.Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading authority file %s: %w", path, err)
	}

	opts, err := wire.DecodeOptions(data, true)
	if err != nil {
		return nil, fmt.Errorf("decoding authority file %s: %w", path, err)
	}

	cfg, err = ahcpconf.FromOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("authority file %s: %w", path, err)
	}

	return cfg, nil
}
