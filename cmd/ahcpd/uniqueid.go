package main

import (
	"fmt"
	"os"

	"github.com/AdguardTeam/golibs/log"
	"github.com/google/uuid"
)

// loadOrCreateUniqueID reads the 16-byte persisted client identity from
// path, generating and persisting a fresh one from the system random
// device if the file is absent, per spec.md §6.
func loadOrCreateUniqueID(path string) (id []byte, err error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != 16 {
			return nil, fmt.Errorf("unique-id file %s: want 16 bytes, got %d", path, len(data))
		}

		return data, nil
	}

	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading unique-id file %s: %w", path, err)
	}

	fresh := uuid.New()

	if werr := os.WriteFile(path, fresh[:], 0o600); werr != nil {
		return nil, fmt.Errorf("writing unique-id file %s: %w", path, werr)
	}

	log.Info("ahcpd: generated new unique id at %s", path)

	return fresh[:], nil
}
