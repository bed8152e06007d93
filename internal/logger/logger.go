package logger

import (
	"os"

	"go.uber.org/zap"
)

// New builds the process-wide logger. Development mode is selected with
// APP_ENV=dev; everything else gets JSON production output.
func New() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
