package domain

import "strconv"

// Command is a single request sent to a backend.
type Command struct {
	Name string
	Args [][]byte
}

// Strings returns the command name followed by its arguments, for logging and encoding.
func (c Command) Strings() []string {
	out := make([]string, 0, len(c.Args)+1)
	out = append(out, c.Name)
	for _, a := range c.Args {
		out = append(out, string(a))
	}
	return out
}

// Get fetches the value stored at key.
func Get(key string) Command {
	return Command{Name: "GET", Args: [][]byte{[]byte(key)}}
}

// SetEx stores value at key with a TTL in whole seconds.
func SetEx(key string, ttlSeconds int64, value []byte) Command {
	return Command{Name: "SETEX", Args: [][]byte{
		[]byte(key),
		[]byte(strconv.FormatInt(ttlSeconds, 10)),
		value,
	}}
}

// Del removes key.
func Del(key string) Command {
	return Command{Name: "DEL", Args: [][]byte{[]byte(key)}}
}

// Auth authenticates the connection.
func Auth(credential string) Command {
	return Command{Name: "AUTH", Args: [][]byte{[]byte(credential)}}
}

// Ping checks the connection.
func Ping() Command {
	return Command{Name: "PING"}
}
