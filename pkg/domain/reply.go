package domain

import "strconv"

// ReplyKind tags the shape of a backend reply.
type ReplyKind int

const (
	ReplyNil ReplyKind = iota
	ReplyStatus
	ReplyInteger
	ReplyBulk
	ReplyError
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyNil:
		return "nil"
	case ReplyStatus:
		return "status"
	case ReplyInteger:
		return "integer"
	case ReplyBulk:
		return "bulk"
	case ReplyError:
		return "error"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Reply is a backend reply decoded once by the connection.
// Str holds the text of Status and Error replies, Int the value of Integer
// replies and Bulk the payload of Bulk replies.
type Reply struct {
	Kind ReplyKind
	Str  string
	Int  int64
	Bulk []byte
}

// StatusReply builds a Status reply.
func StatusReply(s string) Reply { return Reply{Kind: ReplyStatus, Str: s} }

// IntegerReply builds an Integer reply.
func IntegerReply(n int64) Reply { return Reply{Kind: ReplyInteger, Int: n} }

// BulkReply builds a Bulk reply.
func BulkReply(b []byte) Reply { return Reply{Kind: ReplyBulk, Bulk: b} }

// ErrorReply builds an Error reply.
func ErrorReply(msg string) Reply { return Reply{Kind: ReplyError, Str: msg} }

// NilReply is the reply for an absent key.
var NilReply = Reply{Kind: ReplyNil}

// IsOK reports whether the reply is exactly the "+OK" status line.
func (r Reply) IsOK() bool {
	return r.Kind == ReplyStatus && r.Str == "OK"
}

func (r Reply) String() string {
	switch r.Kind {
	case ReplyStatus:
		return "+" + r.Str
	case ReplyError:
		return "-" + r.Str
	case ReplyInteger:
		return ":" + strconv.FormatInt(r.Int, 10)
	case ReplyBulk:
		return "$" + strconv.Itoa(len(r.Bulk))
	default:
		return "(nil)"
	}
}
