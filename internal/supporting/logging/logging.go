/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/gookit/color"
	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
	"github.com/gookit/slog/rotatefile"
	"github.com/inhies/go-bytesize"
	"github.com/noctarius/mongo-sql-replicator/internal/supporting"
	"github.com/noctarius/mongo-sql-replicator/spi/config"
)

var WithVerbose = false
var WithCaller = false

const (
	VerboseLevel slog.Level = 650

	defaultMaxSize  bytesize.ByteSize = 5 * bytesize.MB
	bufferSize                        = 1024
	messageTemplate                   = "[{{datetime}}] [{{level}}] {{message}} {{data}} {{extra}}\n"
	callerTemplate                    = "[{{datetime}}] [{{level}}] [{{caller}}] {{message}} {{data}} {{extra}}\n"
)

type outputs struct {
	mutex          sync.Mutex
	config         config.LoggerConfig
	level          slog.Level
	console        slog.Handler
	consoleEnabled bool
	file           *handler.SyncCloseHandler
	files          map[string]*handler.SyncCloseHandler
}

var registry = &outputs{
	level: slog.InfoLevel,
	files: make(map[string]*handler.SyncCloseHandler),
}

func init() {
	registry.console = newConsoleHandler(false)
	registry.consoleEnabled = true
}

// InitializeLogging configures the shared console and file outputs
// from the logging section. Loggers created before this call keep
// their previous outputs.
func InitializeLogging(
	c *config.Config, logToStdErr bool,
) error {

	registerVerboseLevel()

	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	registry.config = c.Logging
	registry.level = Name2Level(c.Logging.Level)
	registry.console = newConsoleHandler(logToStdErr)
	registry.consoleEnabled = enabled(c.Logging.Outputs.Console.Enabled, true)

	_, fileHandler, err := registry.fileHandler(c.Logging.Outputs.File)
	if err != nil {
		return supporting.AdaptError(err, supporting.ExitCodeLogging)
	}
	registry.file = fileHandler
	return nil
}

func registerVerboseLevel() {
	slog.LevelNames[VerboseLevel] = "VERBOSE"
	slog.ColorTheme[VerboseLevel] = color.FgLightGreen
	slog.AllLevels = slog.Levels{
		slog.PanicLevel, slog.FatalLevel, slog.ErrorLevel,
		slog.WarnLevel, slog.NoticeLevel, slog.InfoLevel,
		VerboseLevel, slog.DebugLevel, slog.TraceLevel,
	}
	slog.NormalLevels = slog.Levels{
		slog.InfoLevel, slog.NoticeLevel, VerboseLevel,
		slog.DebugLevel, slog.TraceLevel,
	}
}

func newConsoleHandler(
	logToStdErr bool,
) slog.Handler {

	consoleHandler := handler.NewConsoleHandler(slog.AllLevels)
	template := messageTemplate
	if WithCaller {
		template = callerTemplate
	}
	consoleHandler.TextFormatter().SetTemplate(template)
	if logToStdErr {
		consoleHandler.IOWriterHandler = *handler.NewIOWriterHandler(os.Stderr, slog.AllLevels)
	}
	return &syncConsoleHandler{ConsoleHandler: consoleHandler}
}

// syncConsoleHandler serializes writes of concurrent stream workers.
type syncConsoleHandler struct {
	*handler.ConsoleHandler
	mutex sync.Mutex
}

func (h *syncConsoleHandler) Handle(
	record *slog.Record,
) error {

	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.ConsoleHandler.Handle(record)
}

type Logger struct {
	slogger *slog.Logger
	level   slog.Level
	name    string
}

// NewLogger creates a named logger. A matching entry in the loggers
// section overrides level and outputs for this name.
func NewLogger(
	name string,
) (*Logger, error) {

	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	level := registry.level
	handlers := make([]slog.Handler, 0, 2)

	if override, found := registry.config.Loggers[name]; found {
		if enabled(override.Outputs.Console.Enabled, true) {
			handlers = append(handlers, registry.console)
		}

		present, fileHandler, err := registry.fileHandler(override.Outputs.File)
		if err != nil {
			return nil, err
		}
		if present {
			handlers = append(handlers, fileHandler)
		} else if registry.file != nil {
			handlers = append(handlers, registry.file)
		}

		if override.Level != nil {
			level = Name2Level(*override.Level)
		}
	} else {
		if registry.consoleEnabled {
			handlers = append(handlers, registry.console)
		}
		if registry.file != nil {
			handlers = append(handlers, registry.file)
		}
	}

	slogger := slog.NewWithName(name, func(l *slog.Logger) {
		l.CallerSkip += 2
		l.ReportCaller = WithCaller
		l.AddHandlers(handlers...)
	})

	return &Logger{
		slogger: slogger,
		level:   level,
		name:    name,
	}, nil
}

func (l *Logger) Tracef(format string, args ...any) {
	l.logf(slog.TraceLevel, format, args)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(slog.DebugLevel, format, args)
}

func (l *Logger) Debugln(args ...any) {
	l.log(slog.DebugLevel, args)
}

func (l *Logger) Verbosef(format string, args ...any) {
	l.logf(VerboseLevel, format, args)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(slog.InfoLevel, format, args)
}

func (l *Logger) Infoln(args ...any) {
	l.log(slog.InfoLevel, args)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(slog.WarnLevel, format, args)
}

func (l *Logger) Warnln(args ...any) {
	l.log(slog.WarnLevel, args)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(slog.ErrorLevel, format, args)
}

func (l *Logger) Errorln(args ...any) {
	l.log(slog.ErrorLevel, args)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.logf(slog.FatalLevel, format, args)
}

// Enabled reports whether a message at level would be written.
func (l *Logger) Enabled(
	level slog.Level,
) bool {

	return l.level >= level || (level == VerboseLevel && WithVerbose)
}

func (l *Logger) logf(
	level slog.Level, format string, args []any,
) {

	if l.Enabled(level) {
		format = strings.TrimSuffix(format, "\n")
		l.slogger.Logf(level, fmt.Sprintf("[%s] %s", l.name, format), args...)
	}
}

func (l *Logger) log(
	level slog.Level, args []any,
) {

	if l.Enabled(level) {
		args = append([]any{fmt.Sprintf("[%s]", l.name)}, args...)
		l.slogger.Log(level, args...)
	}
}

func Name2Level(
	name string,
) slog.Level {

	switch strings.ToLower(name) {
	case "panic":
		return slog.PanicLevel
	case "fatal":
		return slog.FatalLevel
	case "err", "error":
		return slog.ErrorLevel
	case "warn", "warning":
		return slog.WarnLevel
	case "notice":
		return slog.NoticeLevel
	case "verbose":
		return VerboseLevel
	case "debug":
		return slog.DebugLevel
	case "trace":
		return slog.TraceLevel
	default:
		return slog.InfoLevel
	}
}

// fileHandler returns the handler writing to the configured path,
// reusing the one already opened for the same path. The boolean
// reports whether file output is enabled at all.
func (o *outputs) fileHandler(
	fileConfig config.LoggerFileConfig,
) (bool, *handler.SyncCloseHandler, error) {

	if !enabled(fileConfig.Enabled, false) {
		return false, nil, nil
	}

	if h, ok := o.files[fileConfig.Path]; ok {
		return true, h, nil
	}

	h, err := openFileHandler(fileConfig)
	if err != nil {
		return false, nil, err
	}
	o.files[fileConfig.Path] = h
	return true, h, nil
}

func openFileHandler(
	fileConfig config.LoggerFileConfig,
) (*handler.SyncCloseHandler, error) {

	configurator := func(c *handler.Config) {
		c.Levels = slog.AllLevels
		c.Level = slog.TraceLevel
		c.Compress = fileConfig.Compress
	}

	var h *handler.SyncCloseHandler
	var err error
	switch {
	case !enabled(fileConfig.Rotate, false):
		h, err = handler.NewBuffFileHandler(fileConfig.Path, bufferSize, configurator)

	case fileConfig.MaxDuration != nil:
		interval := time.Second * time.Duration(*fileConfig.MaxDuration)
		h, err = handler.NewTimeRotateFileHandler(
			fileConfig.Path, rotatefile.RotateTime(interval.Seconds()), configurator,
		)

	default:
		maxSize := defaultMaxSize
		if fileConfig.MaxSize != nil {
			if maxSize, err = bytesize.Parse(*fileConfig.MaxSize); err != nil {
				return nil, errors.Errorf("failed to parse max size '%s': %s", *fileConfig.MaxSize, err)
			}
		}
		h, err = handler.NewSizeRotateFileHandler(fileConfig.Path, int(maxSize), configurator)
	}

	if err != nil {
		return nil, errors.Errorf("failed to initialize logfile handler: %s", err)
	}
	return h, nil
}

func enabled(
	value *bool, def bool,
) bool {

	if value == nil {
		return def
	}
	return *value
}
