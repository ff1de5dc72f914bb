// Package ahcplog configures the daemon's logging, following the
// teacher's newSlogLogger/configureLogger split: verbosity raises the
// level, a log file path is rotated through lumberjack, and the literal
// value "syslog" selects the OS system log.
package ahcplog

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/AdguardTeam/golibs/log"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/ahcp-project/ahcpd/internal/aghos"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Syslog is the sentinel log-file value that selects the OS system log.
const Syslog = "syslog"

// Settings controls where and how verbosely ahcpd logs.
type Settings struct {
	// File is empty (stdout), [Syslog], or a file path, absolute or
	// relative to WorkDir.
	File    string
	WorkDir string
	Verbose bool

	// Rotation controls lumberjack's file-rotation policy; zero values
	// disable rotation entirely, matching lumberjack's own defaults.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewSlogLogger returns a [*slog.Logger] whose level follows s.Verbose (the
// other fields of s are not used), for components
// that prefer structured logging over [github.com/AdguardTeam/golibs/log]'s
// legacy printf-style API.
func NewSlogLogger(s Settings) (l *slog.Logger) {
	lvl := slog.LevelInfo
	if s.Verbose {
		lvl = slog.LevelDebug
	}

	return slogutil.New(&slogutil.Config{
		Format:       slogutil.FormatAdGuardLegacy,
		Level:        lvl,
		AddTimestamp: true,
	})
}

// Configure sets up the package-level [log] logger's level and output
// per s, for serviceName (used as the syslog/eventlog source name).
func Configure(s Settings, serviceName string) (err error) {
	if s.Verbose {
		log.SetLevel(log.DEBUG)
	}

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if s.File == "" {
		return nil
	}

	if s.File == Syslog {
		if err = aghos.ConfigureSyslog(serviceName); err != nil {
			return fmt.Errorf("cannot initialize syslog: %w", err)
		}

		return nil
	}

	path := s.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.WorkDir, path)
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:   path,
		Compress:   s.Compress,
		MaxBackups: s.MaxBackups,
		MaxSize:    s.MaxSizeMB,
		MaxAge:     s.MaxAgeDays,
	})

	return nil
}
