package config

import (
	"fmt"
	"os"
)

func Template() string {
	return defaultTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}

const defaultTemplate = `addr = ":9400"
cors_origins = ["http://localhost:3000"]
default_scheme = "tagged"
log_level = "info"
# extra struct definitions (.toml or .yaml) registered next to the built-in catalog
schemas = []

[store]
driver = "pebble"
path = "recwire-data"
compress = false

[limits]
max_string_bytes = 16777216
max_container_size = 1048576
max_depth = 64
max_payload_bytes = 67108864
`
