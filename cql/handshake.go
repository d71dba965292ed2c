// File: cql/handshake.go
// Author: momentics <momentics@gmail.com>
//
// STARTUP/AUTHENTICATE/OPTIONS/SUPPORTED/READY/AUTH_CHALLENGE/
// AUTH_SUCCESS: the handful of frames exchanged once per connection
// before any QUERY/EXECUTE/BATCH can be sent.
package cql

// StartupOptions are the [string map] options sent in a STARTUP body.
type StartupOptions struct {
	CQLVersion  string
	Compression string // "", "lz4", or "snappy"
}

// EncodeStartup builds a STARTUP body: a [string map] of option name to
// value.
func EncodeStartup(opts StartupOptions) []byte {
	m := map[string]string{"CQL_VERSION": opts.CQLVersion}
	if opts.Compression != "" {
		m["COMPRESSION"] = opts.Compression
	}
	return WriteStringMap(nil, m)
}

// EncodeOptionsFrame builds a complete OPTIONS frame (header + empty
// body): the fixed request a client sends to discover what the server
// supports before choosing STARTUP options.
func EncodeOptionsFrame(stream int16) []byte {
	frame := make([]byte, HeaderLen)
	EncodeHeader(frame, stream, OpOptions, 0)
	return frame
}

// Authenticate is the AUTHENTICATE response body: the server's chosen
// IAuthenticator class name.
type Authenticate struct {
	Authenticator string
}

// DecodeAuthenticate reads an AUTHENTICATE frame's body.
func DecodeAuthenticate(body []byte) (Authenticate, error) {
	d := NewDecoder(body)
	s, err := d.ReadLongString()
	if err != nil {
		return Authenticate{}, err
	}
	return Authenticate{Authenticator: s}, nil
}

// EncodeAuthResponse builds an AUTH_RESPONSE body: a [bytes] SASL token.
// A nil token encodes as NULL, matching a mechanism's initial empty
// response.
func EncodeAuthResponse(token []byte) []byte {
	return WriteBytes(nil, token)
}

// AuthChallenge is the AUTH_CHALLENGE body: a SASL continuation token.
type AuthChallenge struct {
	Token []byte
}

// DecodeAuthChallenge reads an AUTH_CHALLENGE frame's body.
func DecodeAuthChallenge(body []byte) (AuthChallenge, error) {
	d := NewDecoder(body)
	b, err := d.ReadBytes()
	if err != nil {
		return AuthChallenge{}, err
	}
	return AuthChallenge{Token: b}, nil
}

// AuthSuccess is the AUTH_SUCCESS body: an optional final SASL token.
type AuthSuccess struct {
	Token []byte
}

// DecodeAuthSuccess reads an AUTH_SUCCESS frame's body.
func DecodeAuthSuccess(body []byte) (AuthSuccess, error) {
	d := NewDecoder(body)
	b, err := d.ReadBytes()
	if err != nil {
		return AuthSuccess{}, err
	}
	return AuthSuccess{Token: b}, nil
}

// Supported is the SUPPORTED response body: a [string multimap] of
// option name to the list of values the server accepts for it (at
// minimum CQL_VERSION and COMPRESSION).
type Supported struct {
	Options map[string][]string
}

// DecodeSupported reads a SUPPORTED frame's body.
func DecodeSupported(body []byte) (Supported, error) {
	d := NewDecoder(body)
	m, err := d.ReadStringMultimap()
	if err != nil {
		return Supported{}, err
	}
	return Supported{Options: m}, nil
}

// SupportsCompression reports whether name ("lz4" or "snappy") appears
// in the server's advertised COMPRESSION option values.
func (s Supported) SupportsCompression(name string) bool {
	for _, v := range s.Options["COMPRESSION"] {
		if v == name {
			return true
		}
	}
	return false
}

// ShardHint carries the SCYLLA_SHARD/SCYLLA_NR_SHARDS values a
// shard-aware server advertises in its SUPPORTED options, letting a
// caller pin this connection's goroutines to the matching CPU.
type ShardHint struct {
	Shard    int
	NrShards int
	Present  bool
}

// ParseShardHint extracts SCYLLA_SHARD/SCYLLA_NR_SHARDS from a SUPPORTED
// response, if the server advertised them.
func ParseShardHint(s Supported) ShardHint {
	shardVals, ok := s.Options["SCYLLA_SHARD"]
	if !ok || len(shardVals) == 0 {
		return ShardHint{}
	}
	nrVals, ok := s.Options["SCYLLA_NR_SHARDS"]
	if !ok || len(nrVals) == 0 {
		return ShardHint{}
	}
	shard := atoiOrZero(shardVals[0])
	nr := atoiOrZero(nrVals[0])
	return ShardHint{Shard: shard, NrShards: nr, Present: true}
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Ready marks a READY frame: an empty body, no fields to decode.
type Ready struct{}
