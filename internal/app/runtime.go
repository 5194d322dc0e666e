package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "STOCKTALLY_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads STOCKTALLY_TEST_MODE once. Any value strconv.ParseBool
// accepts as true enables it; unparsable values leave it off.
func detectTestMode() {
	enabled, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeFlag.Store(err == nil && enabled)
}

// InTestMode reports whether the binaries should skip startup and the router
// should skip request logging.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
