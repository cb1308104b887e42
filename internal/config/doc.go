// Package config loads and validates weft.yaml.
//
// Every field has a default, so a missing config file yields a fully
// usable configuration. Durations are written as Go duration strings
// ("16ms", "10s") and validated at load time.
package config
