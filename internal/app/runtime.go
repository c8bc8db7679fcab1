package app

import (
	"os"
	"strconv"
	"strings"
)

// TestModeEnv makes cmd/odyssey and cmd/worker exit before opening any
// connection.
const TestModeEnv = "ODYSSEY_TEST_MODE"

// InTestMode reports whether TestModeEnv holds a true value.
func InTestMode() bool {
	on, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(TestModeEnv)))
	return err == nil && on
}
