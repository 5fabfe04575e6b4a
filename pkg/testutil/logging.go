package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Importing testutil silences logrus unless tests run verbosely. Log levels are
// opened up fully so verbose runs show transitions.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	if !isVerbose(os.Args) {
		logrus.StandardLogger().Out = io.Discard
	}
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		switch {
		case arg == "-test.v", arg == "-test.v=true":
			return true
		case strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false":
			return true
		}
	}
	return false
}

func DisableLogging() (reset func()) {
	originalLogOutput := logrus.StandardLogger().Out
	logrus.StandardLogger().Out = io.Discard
	return func() {
		logrus.StandardLogger().Out = originalLogOutput
	}
}
