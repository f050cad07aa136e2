package config

import "go.uber.org/zap"

// NewLogger builds the process logger. Development mode logs at debug level
// in console format.
func (c Config) NewLogger() (*zap.Logger, error) {
	if c.LogDevelopment {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
