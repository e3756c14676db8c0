// Package logging builds the zap loggers shared by the permission
// controller server and the permctl command.
//
// New takes a Config holding a level name, a Development switch and the
// zap output paths. With Development off the logger writes one JSON
// object per line using the keys timestamp, level and message, and
// stack traces are suppressed. With Development on it writes colored
// console lines and attaches stack traces to warnings. An empty
// OutputPaths writes to stdout.
//
// The server configures its logger from the LOG_LEVEL and LOG_DEV
// settings. permctl logs to stderr so that its stdout stays limited to
// command output:
//
//	logger, err := logging.New(logging.Config{Level: "warn", OutputPaths: []string{"stderr"}})
//
// NewDefault and NewDevelopment fall back to Nop when the configuration
// cannot be built. The returned Logger embeds *zap.Logger, and SetLevel
// adjusts its threshold while it is running.
package logging
