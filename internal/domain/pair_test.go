package domain

import "testing"

func TestPairID_OrderIndependent(t *testing.T) {
	if PairID("alice", "bob") != PairID("bob", "alice") {
		t.Fatal("pair id must not depend on argument order")
	}
	if got, want := PairID("bob", "alice"), "alice_bob"; got != want {
		t.Fatalf("PairID = %q, want %q", got, want)
	}
}

func TestSortPair(t *testing.T) {
	low, high := SortPair("zeta", "alpha")
	if low != "alpha" || high != "zeta" {
		t.Fatalf("SortPair = (%q, %q)", low, high)
	}
	low, high = SortPair("alpha", "zeta")
	if low != "alpha" || high != "zeta" {
		t.Fatalf("SortPair = (%q, %q)", low, high)
	}
}

func TestConversationHelpers(t *testing.T) {
	c := Conversation{ID: "a_b", User1ID: "a", User2ID: "b", User2Unread: true}

	if !c.HasParticipant("a") || !c.HasParticipant("b") || c.HasParticipant("x") {
		t.Fatal("HasParticipant wrong")
	}
	if c.Other("a") != "b" || c.Other("b") != "a" {
		t.Fatal("Other wrong")
	}
	if c.UnreadFor("a") || !c.UnreadFor("b") {
		t.Fatal("UnreadFor wrong")
	}
}
