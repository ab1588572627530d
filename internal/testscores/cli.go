package testscores

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/witarcade/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file as well.
func SetupLogging(logFile, format string) (func() error, error) {
	if logFile == "" {
		return func() error { return nil }, logger.Init(logger.WithFormat(format))
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithFormat(format), logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file.Close, nil
}
