package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const defaultSettingsDir = ".streamir"

// SettingsDir is the directory relative paths in the settings resolve
// against. An explicit settings_dir wins, then the directory of the config
// file in use, then ./.streamir.
func SettingsDir() string {
	if dir := viper.GetString("settings_dir"); dir != "" {
		return expandHome(dir)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return filepath.Dir(used)
	}
	return defaultSettingsDir
}

// ResolvePath makes a settings path usable: "~/" is expanded, absolute
// paths are kept and anything else is placed under SettingsDir.
func ResolvePath(p string) string {
	p = expandHome(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(SettingsDir(), p)
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
