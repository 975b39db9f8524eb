// Package logcfg configures logrus output for the bot.
package logcfg

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// callerPrettyfier prints the caller as "file.line.func".
func callerPrettyfier(f *runtime.Frame) (function string, file string) {
	_, filename := path.Split(f.File)
	filename = fmt.Sprintf("%s.%d.%s", filename, f.Line, f.Function)
	return "", filename
}

// rotatingFile returns a lumberjack writer with the bot's rotation policy.
func rotatingFile(fileName string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}
}

// RunLoggerConfig производит настройку logrus устанавливая уровень логирования,
// формат логируемой информации и настройки записи логов в файл.
func RunLoggerConfig(envLogs, fileName string) error {
	logLevel, err := logrus.ParseLevel(envLogs)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logrus.SetLevel(logLevel)
	logrus.SetReportCaller(true)

	//Настраиваем формат логируемой информации
	logrus.SetFormatter(&logrus.TextFormatter{
		CallerPrettyfier: callerPrettyfier,
	})
	// Настраиваем запись логов в файл
	mw := io.MultiWriter(os.Stdout, rotatingFile(fileName))
	logrus.SetOutput(mw)
	return nil
}

// NewFileLogger creates a separate logger writing only to a rotating file,
// used for the chat membership journal.
func NewFileLogger(fileName string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	logger.SetOutput(rotatingFile(fileName))
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

// NewRotatingWriter returns a raw rotating file writer for journals that
// keep their own record format.
func NewRotatingWriter(fileName string) io.WriteCloser {
	return rotatingFile(fileName)
}
