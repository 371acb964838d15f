/*
Package ports defines the driven ports (interfaces) of sessionshard.

These interfaces decouple the routing core from the key-value protocol and
from the session framework that embeds it.

# Key Interfaces

  - Conn: one backend connection (open, one-command round trip, status, fault slot, non-throwing mode).
  - ConnFactory: builds not yet connected Conns for the pool.
  - SessionStore: the read/write/destroy/gc/close contract exposed to a session framework.
  - DistributedLocker: optional cross-process locking of a session.
*/
package ports
