// MIT License
//
// # Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/log/logger.go
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity level of the log message.
type LogLevel int

const (
	DEBUG LogLevel = iota // Detailed debug information.
	INFO                  // General informational messages.
	WARN                  // Warnings about potential issues.
	ERROR                 // Error messages.
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the level label.
func (l LogLevel) String() string {
	if l < DEBUG || l > ERROR {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel maps a level name (case-insensitive) to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(i), nil
		}
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogBuffer is a thread-safe bytes.Buffer to store logs in memory.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (l *LogBuffer) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

// Sync implements zapcore.WriteSyncer.
func (l *LogBuffer) Sync() error { return nil }

// String returns the current contents of the buffer.
func (l *LogBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// Reset drops the buffered contents.
func (l *LogBuffer) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Reset()
}

var (
	mu     sync.RWMutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	buffer = &LogBuffer{}
	base   *zap.Logger
	sugar  *zap.SugaredLogger
)

func init() {
	SetOutput(os.Stderr)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// SetOutput redirects console output; the in-memory buffer always receives
// a copy of every entry.
func SetOutput(w io.Writer) {
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(w), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), buffer, level),
	)
	l := zap.New(core)

	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

// SetLevel sets the global logging level.
func SetLevel(lvl LogLevel) {
	level.SetLevel(lvl.zapLevel())
}

// Logger returns the structured zap logger behind the package functions.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Named returns a child logger tagged with a component name.
func Named(name string) *zap.Logger {
	return Logger().Named(name)
}

func s() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Infof logs a formatted message at INFO level.
func Infof(format string, args ...any) { s().Infof(format, args...) }

// Errorf logs a formatted message at ERROR level.
func Errorf(format string, args ...any) { s().Errorf(format, args...) }

// Fatalf logs a formatted message at ERROR level and then terminates the program.
func Fatalf(format string, args ...any) {
	s().Errorf(format, args...)
	_ = Logger().Sync()
	os.Exit(1)
}

// Debugf logs a formatted message at DEBUG level.
func Debugf(format string, args ...any) { s().Debugf(format, args...) }

// Warnf logs a formatted message at WARN level.
func Warnf(format string, args ...any) { s().Warnf(format, args...) }

// Debug logs a DEBUG level message.
func Debug(format string, args ...any) { Debugf(format, args...) }

// Info logs an INFO level message.
func Info(format string, args ...any) { Infof(format, args...) }

// Warn logs a WARN level message.
func Warn(format string, args ...any) { Warnf(format, args...) }

// Error logs an ERROR level message.
func Error(format string, args ...any) { Errorf(format, args...) }

// GetLogs returns the full log content accumulated in the in-memory buffer.
func GetLogs() string {
	return buffer.String()
}
