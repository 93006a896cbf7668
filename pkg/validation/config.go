// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/deal-calculator/pkg/constants"
)

// ValidateChoice checks that value is one of allowed. An empty value is
// accepted when allowEmpty is set.
func ValidateChoice(kind, value string, allowEmpty bool, allowed ...string) error {
	if value == "" && allowEmpty {
		return nil
	}
	for _, option := range allowed {
		if value == option {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s %q, expected one of %s", kind, value, strings.Join(allowed, ", "))
}

// ValidateLogLevel checks a logging level. Empty selects the default.
func ValidateLogLevel(level string) error {
	return ValidateChoice("log level", strings.ToLower(level), true, "debug", "info", "warn", "error")
}

// ValidateLogFormat checks a logging encoder. Empty selects the default.
func ValidateLogFormat(format string) error {
	return ValidateChoice("log format", strings.ToLower(format), true, "json", "console")
}

// ValidateStorageDriver checks a storage driver. Empty selects memory.
func ValidateStorageDriver(driver string) error {
	return ValidateChoice("storage driver", driver, true,
		constants.StorageDriverMemory, constants.StorageDriverSQLite, constants.StorageDriverPostgres)
}

// ValidateCacheBackend checks a cache backend. Empty selects memory.
func ValidateCacheBackend(backend string) error {
	return ValidateChoice("cache backend", backend, true,
		constants.CacheBackendNone, constants.CacheBackendMemory, constants.CacheBackendRedis)
}

// DuplicateNames returns every name that appears more than once, sorted.
// Blank names are ignored.
func DuplicateNames(names []string) []string {
	seen := make(map[string]int, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		seen[name]++
	}
	var duplicates []string
	for name, count := range seen {
		if count > 1 {
			duplicates = append(duplicates, name)
		}
	}
	sort.Strings(duplicates)
	return duplicates
}
