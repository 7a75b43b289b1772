package logging

import (
	"github.com/sirupsen/logrus"
)

// Init receives the log level as a string, parses it and configures the
// global logrus logger. An invalid level string returns an error. An empty
// level defaults to info.
func Init(logLevel string) error {
	if logLevel == "" {
		logLevel = "info"
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	customFormatter := &logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	}
	logrus.SetFormatter(customFormatter)
	logrus.SetLevel(level)
	return nil
}
