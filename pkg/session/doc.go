/*
Package session runs the session operations (Read, Write, Destroy, GC) on top
of a pool.Pool.

Every operation routes the session id to one member, builds the storage key
from the member prefix and sends a single command to the primary connection.
Reads move to the failover only when the primary raised a fault; writes move
to the failover on any failure. Destroy and GC never fail over.

Store is not safe for concurrent use. Manager wraps a Store and serializes
access per member, optionally holding a distributed lock per session.
*/
package session
