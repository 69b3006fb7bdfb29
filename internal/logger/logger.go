// Package logger configures the process-wide logrus logger.
package logger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	base *logrus.Logger
	once sync.Once
)

// Init sets up the shared logger. Unknown levels fall back to info.
func Init(level string) {
	once.Do(func() {
		base = logrus.New()
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// New returns an entry tagged with the component name.
func New(component string) *logrus.Entry {
	if base == nil {
		Init("info")
	}
	return base.WithField("component", component)
}
