package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the root logger: JSON in production, console otherwise.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
