package oidcauth

import "log"

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)
const LogLevelDefault = LogLevelError

var _logLevel LogLevel = LogLevelDefault

func _log(level LogLevel, format string, v ...any) {
	if _logLevel >= level {
		log.Printf(format, v...)
	}
}

func SetLogLevel(logLevel LogLevel) {
	_logLevel = logLevel
}
