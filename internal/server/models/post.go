package models

import "encoding/json"

// Post is a content-addressed record: ID is the hex SHA-256 digest of
// the canonical JSON payload, so identical payloads share one row.
type Post struct {
	ID      string
	Payload json.RawMessage
}
