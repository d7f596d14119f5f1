// Copyright (c) 2025 Justin Cranford

package config

import "os"

func homeDir() (string, error) {
	return os.UserHomeDir()
}
