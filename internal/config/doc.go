// Package config provides the configuration of upcrawler: defaults,
// validation, the optional YAML configuration file and XDG paths.
package config
