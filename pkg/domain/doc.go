/*
Package domain contains the data model shared by every layer of sessionshard.

It is kept free of I/O. Adapters and the pool exchange these types only.

# Key Entities

  - Endpoint: a parsed backend definition (address, weight, timeout, prefix, auth, failover).
  - Command and Reply: one request and its decoded, tagged reply.
  - ShardError and the sentinel errors: the failure taxonomy of the system.
  - LifecycleHooks: observability callbacks for routing, operations and failovers.
*/
package domain
