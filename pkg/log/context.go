package log

import (
	"context"
	"fmt"
	"io"
	"path"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Store log fields in context.
type (
	contextLoggerKey struct{}
)

var stdEntry = logrus.NewEntry(logrus.StandardLogger())

// Setup configures the standard logger. level is one of logrus' level
// names; format is "text" or "json".
func Setup(out io.Writer, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	std := logrus.StandardLogger()
	if out != nil {
		std.SetOutput(out)
	}
	std.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		std.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			CallerPrettyfier: CallerPrettyfier,
		})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	std.SetReportCaller(lvl == logrus.DebugLevel || lvl == logrus.TraceLevel)
	return nil
}

// WithFields creates a new logger with merged fields if
// there is already a logger in context.
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	return context.WithValue(ctx, contextLoggerKey{}, GetLogger(ctx).WithFields(fields))
}

// WithLogger returns a new context with the provided logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, contextLoggerKey{}, logger)
}

// GetLogger retrieves the current logger from the context. If no logger is
// available, the standard logger is returned.
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return stdEntry
	}
	logger, ok := ctx.Value(contextLoggerKey{}).(*logrus.Entry)
	if !ok || logger == nil {
		return stdEntry
	}
	return logger
}

// CallerPrettyfier shortens caller frames to dir/file:line.
func CallerPrettyfier(f *runtime.Frame) (string, string) {
	dir, filename := path.Split(f.File)
	dir = strings.TrimSuffix(dir, "/")
	_, dir = path.Split(dir)
	filename = fmt.Sprintf("%s:%d", path.Join(dir, filename), f.Line)

	fn := f.Function
	idx := strings.LastIndex(fn, "/")
	if idx >= 0 {
		fn = fn[idx+1:]
	}

	return fn, filename
}
