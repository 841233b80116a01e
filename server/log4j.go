// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"log/slog"
	"regexp"
)

// LevelTrace is below [slog.LevelDebug] and used for log4j TRACE lines.
const LevelTrace = slog.LevelDebug - 4

// LogLine is a single line written by the server in the default
// log4j console pattern, e.g.
//
//	[12:34:56] [Server thread/INFO]: Done (3.2s)! For help, type "help"
type LogLine struct {
	Time    string
	Thread  string
	Level   slog.Level
	Message string
}

var logLinePattern = regexp.MustCompile(`^\[(\d{2}:\d{2}:\d{2})\] \[([^\]]+)/(TRACE|DEBUG|INFO|WARN|ERROR|FATAL)\]:? (.*)$`)

var log4jLevels = map[string]slog.Level{
	"TRACE": LevelTrace,
	"DEBUG": slog.LevelDebug,
	"INFO":  slog.LevelInfo,
	"WARN":  slog.LevelWarn,
	"ERROR": slog.LevelError,
	"FATAL": slog.LevelError,
}

// ParseLogLine parses s, reporting false if it does not follow the log4j pattern.
func ParseLogLine(s string) (LogLine, bool) {
	m := logLinePattern.FindStringSubmatch(s)
	if m == nil {
		return LogLine{}, false
	}
	l := LogLine{
		Time:    m[1],
		Thread:  m[2],
		Level:   log4jLevels[m[3]],
		Message: m[4],
	}
	return l, true
}
