package utils

import (
	"go.uber.org/zap"
)

// InitLogger returns a production logger, or a human-readable development
// logger when APP_ENV is "development".
func InitLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
