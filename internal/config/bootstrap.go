package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnsureUserConfig makes sure a config.yml exists in the data dir, copying
// the packaged default on first run. If no packaged default exists either,
// the built-in Default() is written out.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		b, merr := yaml.Marshal(Default())
		if merr != nil {
			return "", merr
		}
		if werr := os.WriteFile(userPath, b, 0o644); werr != nil {
			return "", werr
		}
		return userPath, nil
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}
