package config

import (
	"os"
	"path/filepath"
)

// ConfigPathEnvVar names the environment variable consulted when no -config flag is given.
const ConfigPathEnvVar = "FALEPROXY_CONFIG_PATH"

// configFileNames are tried in order inside each search directory.
var configFileNames = []string{"config.yaml", "config.json"}

// GetConfigPath returns the first existing regular file among: the -config
// flag value, $FALEPROXY_CONFIG_PATH, then config.yaml/config.json in the
// working directory and in the executable's directory. It returns "" when
// none exist, in which case defaults apply.
func GetConfigPath(flagPath string) string {
	for _, candidate := range []string{flagPath, os.Getenv(ConfigPathEnvVar)} {
		if candidate != "" && isRegularFile(candidate) {
			return candidate
		}
	}

	for _, dir := range searchDirs() {
		for _, name := range configFileNames {
			if path := filepath.Join(dir, name); isRegularFile(path) {
				return path
			}
		}
	}
	return ""
}

// searchDirs lists the working directory and the executable's directory,
// without duplicates.
func searchDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		if len(dirs) == 0 || dirs[0] != exeDir {
			dirs = append(dirs, exeDir)
		}
	}
	return dirs
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
