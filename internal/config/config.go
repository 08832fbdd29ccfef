// Package config loads BioGuard's properties-file configuration, the
// key/value resource described in SPEC_FULL.md's external interfaces
// section. It keeps the teacher's Config-struct-plus-Load shape
// (wisefido-alarm/internal/config/config.go) but reads a properties
// file instead of environment variables, because the domain has no
// database to configure.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every setting BioGuard's stores and transport need.
type Config struct {
	Server struct {
		Port int
	}
	TLS struct {
		KeystorePath     string
		KeystorePassword string
	}
	Storage struct {
		PatientsCSVPath   string
		DiseasesDirectory string
		DiagnosticsRoot   string
		ReportsDirectory  string
	}
	Log struct {
		Level  string
		Format string
	}
}

const (
	keyServerPort        = "server.port"
	keyKeystorePath      = "ssl.keystore.path"
	keyKeystorePassword  = "ssl.keystore.password"
	keyPatientsCSVPath   = "storage.csv.patients.path"
	keyDiseasesDirectory = "storage.diseases.directory"
	keyDiagnosticsRoot   = "storage.diagnostics.directory"
	keyReportsDirectory  = "storage.reports.high_infectiousness.directory"
)

// requiredKeys are the keys whose absence or blank value must fail
// startup, per SPEC_FULL.md §6: "Missing or blank values for any key
// used by an initialized store cause startup to fail."
var requiredKeys = []string{
	keyServerPort,
	keyKeystorePath,
	keyKeystorePassword,
	keyPatientsCSVPath,
	keyDiseasesDirectory,
	keyDiagnosticsRoot,
	keyReportsDirectory,
}

// Load reads the properties file at path and builds a Config. Any
// recognized key may additionally be overridden by an environment
// variable of the same name with dots replaced by underscores and
// upper-cased (container-deployment convenience); the file remains the
// primary source of truth.
func Load(path string) (*Config, error) {
	values, err := parseProperties(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	for _, key := range requiredKeys {
		if strings.TrimSpace(values[key]) == "" {
			return nil, fmt.Errorf("missing or blank required config key %q in %s", key, path)
		}
	}

	port, err := strconv.Atoi(strings.TrimSpace(values[keyServerPort]))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", keyServerPort, err)
	}

	cfg := &Config{}
	cfg.Server.Port = port
	cfg.TLS.KeystorePath = values[keyKeystorePath]
	cfg.TLS.KeystorePassword = values[keyKeystorePassword]
	cfg.Storage.PatientsCSVPath = values[keyPatientsCSVPath]
	cfg.Storage.DiseasesDirectory = values[keyDiseasesDirectory]
	cfg.Storage.DiagnosticsRoot = values[keyDiagnosticsRoot]
	cfg.Storage.ReportsDirectory = values[keyReportsDirectory]
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func parseProperties(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	values := map[string]string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if envOverride := os.Getenv(envName(key)); envOverride != "" {
			value = envOverride
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
