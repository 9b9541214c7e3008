package bridge

import "log"

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)
const LogLevelDefault = LogLevelInfo

var _logLevel LogLevel = LogLevelDefault

func SetLogLevel(logLevel LogLevel) {
	_logLevel = logLevel
}

func _log(level LogLevel, format string, v ...any) {
	if _logLevel >= level {
		log.Printf(format, v...)
	}
}
