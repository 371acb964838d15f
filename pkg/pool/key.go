package pool

import "strings"

// StorageKey projects a session id onto the key stored in the backend:
// the member prefix immediately followed by the id.
func StorageKey(m *Member, sessionID string) string {
	return m.Prefix() + sessionID
}

// SessionID recovers the session id from a storage key built by StorageKey.
func SessionID(m *Member, storageKey string) (string, bool) {
	return strings.CutPrefix(storageKey, m.Prefix())
}
