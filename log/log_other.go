//go:build !windows

package log

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

func getDefaultDir() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Logs", "zmet"), nil
	}
	return filepath.Join(xdg.ConfigHome, "zmet", "logs"), nil
}
