// Package config turns save path strings and configuration files into
// endpoint descriptors for a pool.
package config
