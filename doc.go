/*
Package sessionshard stores web sessions across a weighted pool of Redis
backends, with an optional failover connection per backend.

# Routing

Every session id is mapped to one pool member: the first four bytes of the id,
read as a little-endian integer, are reduced modulo the total weight of the
pool, and the member whose cumulative weight range holds the result owns the
session. Routing is deterministic, so every process configured with the same
endpoints in the same order agrees on the owner of a session.

# Failover

A member may name a failover address. Writes that the primary cannot serve,
whatever the reason, are retried once on the failover. Reads fall back to
the failover only when the primary connection itself failed. Destroy never
fails over.

# Usage

	h, err := sessionshard.OpenSavePath(ctx,
		"tcp://10.0.0.1:6379?weight=2&failover=10.0.0.9, tcp://10.0.0.2:6379")
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	if err := h.Write(ctx, sessionID, data); err != nil {
		log.Printf("session not saved: %v", err)
	}

Connections are dialed lazily by the first operation routed to a member.
The Handler serializes operations per member and is safe for concurrent use.
*/
package sessionshard
