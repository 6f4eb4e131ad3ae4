package daemon

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// minLedgerFreeBytes is the free-space floor for a file-backed ledger.
const minLedgerFreeBytes = 64 << 20

// checkDataDir verifies that a file-backed ledger directory exists, is
// writable, and sits on a filesystem with enough free space. An empty path
// means the ledger is in-memory and there is nothing to check.
func checkDataDir(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("data directory %s: insufficient permissions: %w", path, err)
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Errorf("statfs %s: %w", path, err)
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minLedgerFreeBytes {
		return fmt.Errorf("data directory %s: %d bytes free, need at least %d", path, free, uint64(minLedgerFreeBytes))
	}
	return nil
}
