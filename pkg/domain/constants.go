package domain

import "time"

// Defaults applied to endpoint descriptors when the configuration omits a field.
const (
	// DefaultPrefix namespaces storage keys when an endpoint has no prefix.
	// It keeps the key layout readable by existing PHP session deployments.
	DefaultPrefix = "PHPREDIS_SESSION:"

	// DefaultPort is used for failover addresses given without a port.
	DefaultPort = 6379

	// DefaultWeight is the routing weight of an endpoint without a weight option.
	DefaultWeight = 1

	// DefaultTimeout is the connection timeout of an endpoint without a timeout option.
	DefaultTimeout = 86400 * time.Second

	// DefaultMaxLifetime is the session TTL used when none is configured.
	DefaultMaxLifetime = 1440 * time.Second
)
