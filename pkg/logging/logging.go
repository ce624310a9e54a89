// Package logging builds the service logger.
package logging

import (
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
)

// New builds an ectologger backed by zap. Pretty mode uses the development
// encoder; otherwise JSON production logging.
func New(pretty bool) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if pretty {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		zapLogger = zap.NewNop()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}
