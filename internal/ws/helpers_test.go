package ws

import "testing"

func TestPairKeyIsOrderInsensitive(t *testing.T) {
	if PairKey("alice", "bob") != PairKey("bob", "alice") {
		t.Fatalf("pair key must not depend on argument order")
	}
	if PairKey("alice", "bob") != "alice:bob" {
		t.Fatalf("unexpected pair key: %s", PairKey("alice", "bob"))
	}
	if PairKey("alice", "bob") == PairKey("alice", "carol") {
		t.Fatalf("distinct pairs must map to distinct keys")
	}
}

func TestNewConnIDIsUnique(t *testing.T) {
	a := newConnID()
	b := newConnID()
	if a == "" || b == "" {
		t.Fatalf("conn id must not be empty")
	}
	if a == b {
		t.Fatalf("conn ids must be unique")
	}
}
