package keyharvest

import (
	"fmt"
	"path"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// initLog configures the CLI's own diagnostic logging. This deliberately
// uses logrus rather than zerolog, matching cmd/chatlog/log.go of the
// teacher repo: the command-line shell formats its own trace output
// independently of the structured zerolog logging used throughout the
// extraction packages.
func initLog(cmd *cobra.Command, args []string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			_, filename := path.Split(f.File)
			return "", fmt.Sprintf("%s:%d", filename, f.Line)
		},
	})

	if debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetReportCaller(true)
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
