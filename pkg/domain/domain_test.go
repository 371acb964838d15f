package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEndpoint_Validate(t *testing.T) {
	valid := NewEndpoint(Address{Host: "10.0.0.1", Port: 6379})
	assert.NoError(t, valid.Validate())

	unix := NewEndpoint(Address{Path: "/run/redis.sock"})
	assert.NoError(t, unix.Validate())
	assert.Equal(t, "unix", unix.Address.Network())
	assert.Equal(t, "/run/redis.sock", unix.Address.String())

	tests := map[string]func(*Endpoint){
		"no address":      func(e *Endpoint) { e.Address = Address{} },
		"zero weight":     func(e *Endpoint) { e.Weight = 0 },
		"negative weight": func(e *Endpoint) { e.Weight = -2 },
		"zero timeout":    func(e *Endpoint) { e.Timeout = 0 },
		"empty failover":  func(e *Endpoint) { e.Failover = &Address{} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			ep := valid
			mutate(&ep)
			assert.ErrorIs(t, ep.Validate(), ErrConfig)
		})
	}
}

func TestNewEndpoint_Defaults(t *testing.T) {
	ep := NewEndpoint(Address{Host: "h", Port: 1})
	assert.Equal(t, DefaultWeight, ep.Weight)
	assert.Equal(t, DefaultTimeout, ep.Timeout)
	assert.Nil(t, ep.Prefix)
	assert.Nil(t, ep.Failover)
	assert.Equal(t, "h:1", ep.Address.String())
	assert.Equal(t, 1440*time.Second, DefaultMaxLifetime)
}

func TestReply(t *testing.T) {
	assert.True(t, StatusReply("OK").IsOK())
	assert.False(t, StatusReply("QUEUED").IsOK())
	assert.False(t, BulkReply([]byte("OK")).IsOK())

	assert.Equal(t, "+OK", StatusReply("OK").String())
	assert.Equal(t, "-ERR boom", ErrorReply("ERR boom").String())
	assert.Equal(t, ":2", IntegerReply(2).String())
	assert.Equal(t, "$3", BulkReply([]byte("abc")).String())
	assert.Equal(t, "(nil)", NilReply.String())
	assert.Equal(t, "bulk", ReplyBulk.String())
}

func TestCommand_Strings(t *testing.T) {
	assert.Equal(t, []string{"SETEX", "k", "1440", "v"}, SetEx("k", 1440, []byte("v")).Strings())
	assert.Equal(t, []string{"PING"}, Ping().Strings())
}

func TestShardError(t *testing.T) {
	err := NewShardError("GET", "10.0.0.1:6379", ErrIO)
	assert.ErrorIs(t, err, ErrIO)

	var se *ShardError
	assert.True(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "10.0.0.1:6379")

	assert.ErrorIs(t, ErrPoolClosed, ErrNoBackend)
}
