// Package guard keeps binaries imported by tests from touching real storage.
// Importing it switches on test mode and points document output at a
// throwaway directory.
package guard

import (
	"os"
	"path/filepath"
)

func init() {
	setDefault("NGTAX_TEST_MODE", "1")
	setDefault("PG_DSN", "")
	if dir, err := os.MkdirTemp("", "ngtax-guard-"); err == nil {
		setDefault("DOCUMENT_STORAGE_DIR", filepath.Join(dir, "documents"))
	}
}

func setDefault(key, value string) {
	if _, ok := os.LookupEnv(key); !ok {
		_ = os.Setenv(key, value)
	}
}
