// Package config provides configuration structures and utilities for savestat.
// It defines the decoder and classifier options of a parse run, the optional
// .savestat YAML file, and report output preferences.
package config
