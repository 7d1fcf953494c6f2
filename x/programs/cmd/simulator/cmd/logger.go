package cmd

import (
	"io"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ava-labs/crank/consts"
)

// newLogger writes plain lines to [w] and, when a log file is configured,
// JSON lines to a rotated file.
func newLogger(cfg *Config, w io.Writer) (logging.Logger, error) {
	level, err := logging.ToLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	cores := []logging.WrappedCore{
		logging.NewWrappedCore(level, nopWriteCloser{w}, logging.Plain.ConsoleEncoder()),
	}
	if cfg.LogFile != "" {
		cores = append(cores, logging.NewWrappedCore(level, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			Compress:   true,
		}, logging.JSON.FileEncoder()))
	}
	return logging.NewLogger(consts.Name, cores...), nil
}

// nopWriteCloser adapts an io.Writer to the io.WriteCloser required by
// logging.NewWrappedCore without closing the underlying writer.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
