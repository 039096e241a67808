// Package testing is imported for its side effects by tests that build the
// full application: it points configuration at harmless local defaults.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var testEnv = map[string]string{
	"APP_ENV":       "test",
	"LOG_FORMAT":    "json",
	"GOTENBERG_URL": "http://127.0.0.1:0",
}

var setup sync.Once

func apply() {
	setup.Do(func() {
		_ = os.Setenv("NGTAX_TEST_MODE", "1")
		for key, value := range testEnv {
			if _, ok := os.LookupEnv(key); !ok {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	apply()
}

// TestMain lets packages delegate their TestMain here.
func TestMain(m *stdtesting.M) {
	apply()
	os.Exit(m.Run())
}
