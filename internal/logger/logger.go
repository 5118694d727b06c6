package logger

import (
	"go.uber.org/zap"
)

// New returns a development logger for the development environment and a
// production (JSON) logger otherwise.
func New(env string) *zap.Logger {
	if env == "development" {
		l, err := zap.NewDevelopment()
		if err == nil {
			return l
		}
	}
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
