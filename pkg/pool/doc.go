/*
Package pool holds the backend members a session can be stored on and the
weighted router that picks one of them for a session key.

A member owns a primary connection and, optionally, one failover connection.
Routing is a pure function of the first four bytes of the key:

	pos := Position(key, pool.TotalWeight())

and the member whose cumulative weight range contains pos is selected. With
weights [1, 3] positions 0 go to the first member and 1..3 to the second.
*/
package pool
