// File: cql/statementid.go
// Author: momentics <momentics@gmail.com>
//
// The statement id a PREPARE/EXECUTE round trip is keyed by is just the
// MD5 digest of the statement text the client is about to send — the
// server computes the identical digest, so the driver can predict and
// cache the id before ever sending PREPARE.
package cql

import (
	"crypto/md5" //nolint:gosec // protocol-mandated digest, not a security boundary
	"strings"
)

// StatementID computes the 16-byte MD5 digest of cqlText, substituting
// any "{{keyspace}}" placeholder with keyspace first.
func StatementID(cqlText, keyspace string) [16]byte {
	resolved := strings.ReplaceAll(cqlText, "{{keyspace}}", keyspace)
	return md5.Sum([]byte(resolved))
}
