package testlogger

import (
	"os"
	"testing"

	"github.com/drand/sigma/log"
)

// Level returns DebugLevel when SIGMA_LOGS=DEBUG, InfoLevel otherwise.
func Level(t *testing.T) int {
	if v, ok := os.LookupEnv(log.EnvLevel); ok && v == "DEBUG" {
		t.Log("Enabling DebugLevel logs")
		return log.DebugLevel
	}
	return log.InfoLevel
}

// New returns a logger tagged with the running test's name.
func New(t *testing.T) log.Logger {
	return log.New(nil, Level(t), true).With("testName", t.Name())
}
