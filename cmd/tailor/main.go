package main

import (
	"os"

	"resume-tailor/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
