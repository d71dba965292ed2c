package cql

import "testing"

func TestStartupEncode(t *testing.T) {
	body := EncodeStartup(StartupOptions{CQLVersion: "3.0.0", Compression: "lz4"})
	d := NewDecoder(body)
	m, err := readStringMap(d)
	if err != nil {
		t.Fatal(err)
	}
	if m["CQL_VERSION"] != "3.0.0" || m["COMPRESSION"] != "lz4" {
		t.Fatalf("unexpected startup options: %v", m)
	}
}

// readStringMap mirrors ReadStringMultimap's framing but for single values,
// used only to verify WriteStringMap's wire format in this test.
func readStringMap(d *Decoder) (map[string]string, error) {
	n, err := d.ReadShort()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, n)
	for i := uint16(0); i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func TestOptionsFrame(t *testing.T) {
	frame := EncodeOptionsFrame(5)
	h, err := DecodeHeader(frame[:HeaderLen])
	if err != nil {
		t.Fatal(err)
	}
	if h.Opcode != OpOptions || h.Stream != 5 || h.Length != 0 {
		t.Fatalf("unexpected options frame header: %+v", h)
	}
}

func TestAuthenticateRoundTrip(t *testing.T) {
	body := WriteLongString(nil, "org.apache.cassandra.auth.PasswordAuthenticator")
	a, err := DecodeAuthenticate(body)
	if err != nil {
		t.Fatal(err)
	}
	if a.Authenticator != "org.apache.cassandra.auth.PasswordAuthenticator" {
		t.Fatalf("unexpected authenticator: %q", a.Authenticator)
	}
}

func TestAuthResponseAndChallengeAndSuccess(t *testing.T) {
	resp := EncodeAuthResponse([]byte("token"))
	d := NewDecoder(resp)
	got, err := d.ReadBytes()
	if err != nil || string(got) != "token" {
		t.Fatalf("auth response round trip: %v %v", got, err)
	}

	challengeBody := WriteBytes(nil, []byte("more"))
	ch, err := DecodeAuthChallenge(challengeBody)
	if err != nil || string(ch.Token) != "more" {
		t.Fatalf("auth challenge: %+v %v", ch, err)
	}

	successBody := WriteBytes(nil, nil)
	succ, err := DecodeAuthSuccess(successBody)
	if err != nil || succ.Token != nil {
		t.Fatalf("auth success: %+v %v", succ, err)
	}
}

func TestSupportedAndShardHint(t *testing.T) {
	var buf []byte
	buf = WriteShort(buf, 3)
	buf = WriteString(buf, "CQL_VERSION")
	buf = WriteStringList(buf, []string{"3.0.0"})
	buf = WriteString(buf, "SCYLLA_SHARD")
	buf = WriteStringList(buf, []string{"2"})
	buf = WriteString(buf, "SCYLLA_NR_SHARDS")
	buf = WriteStringList(buf, []string{"8"})

	sup, err := DecodeSupported(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !sup.SupportsCompression("") && sup.Options["CQL_VERSION"][0] != "3.0.0" {
		t.Fatalf("unexpected supported options: %v", sup.Options)
	}
	hint := ParseShardHint(sup)
	if !hint.Present || hint.Shard != 2 || hint.NrShards != 8 {
		t.Fatalf("unexpected shard hint: %+v", hint)
	}
}

func TestShardHintAbsent(t *testing.T) {
	sup := Supported{Options: map[string][]string{"CQL_VERSION": {"3.0.0"}}}
	hint := ParseShardHint(sup)
	if hint.Present {
		t.Fatalf("expected no shard hint, got %+v", hint)
	}
}
