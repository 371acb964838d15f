// Package redis connects pool members to Redis servers through go-redis.
//
// Every Conn wraps one client limited to a single socket with retries
// disabled, so a failed command is reported to the session operations
// instead of being replayed. Endpoints marked persistent share a client per
// address and persistent id for as long as the Dialer that built them lives.
package redis
