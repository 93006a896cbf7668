package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/validation"
)

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		warnings = append(warnings, err.Error())
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		warnings = append(warnings, err.Error())
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	if err := validation.ValidateStorageDriver(c.Storage.Driver); err != nil {
		warnings = append(warnings, err.Error())
	}
	if c.Storage.Driver == constants.StorageDriverPostgres && c.Storage.DSN == "" {
		warnings = append(warnings, "storage driver postgres needs a dsn")
	}
	if err := validation.ValidateCacheBackend(c.Cache.Backend); err != nil {
		warnings = append(warnings, err.Error())
	}
	if c.Cache.Backend == constants.CacheBackendRedis && c.Cache.RedisAddress == "" {
		warnings = append(warnings, "cache backend redis needs a redisAddress")
	}

	if len(c.Deals) == 0 {
		warnings = append(warnings, "no deals configured")
	}

	names := make([]string, 0, len(c.Deals))
	for i, d := range c.Deals {
		label := d.Name
		if strings.TrimSpace(label) == "" {
			label = fmt.Sprintf("#%d", i+1)
			warnings = append(warnings, fmt.Sprintf("Deal %s has no name", label))
		}
		names = append(names, d.Name)

		variants, err := d.Variants()
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		if d.Input.Category != "" {
			if _, ok := d.Input.CategoryTag(); !ok {
				warnings = append(warnings, fmt.Sprintf("Deal '%s' has unknown property category %q", label, d.Input.Category))
			}
		}
		for _, variant := range variants {
			if missing := d.Input.MissingRequired(variant); len(missing) > 0 {
				warnings = append(warnings, fmt.Sprintf("Deal '%s' (%s) is missing required fields: %s",
					label, variant, strings.Join(missing, ", ")))
			}
		}
	}

	for _, name := range validation.DuplicateNames(names) {
		warnings = append(warnings, fmt.Sprintf("Deal name '%s' is used more than once", name))
	}

	return warnings
}
