// Package testing forces test mode for packages that import it, so the
// binaries and router skip runtime side effects under go test.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("DUKKAN_TEST_MODE", "1")
		_ = os.Setenv("STORE_DRIVER", "memory")
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
