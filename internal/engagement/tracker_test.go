package engagement

import (
	"testing"
	"time"
)

func newTestTracker() (*Tracker, *time.Time) {
	tr := NewTracker()
	t0 := time.Unix(1_700_000_000, 0)
	cur := t0
	tr.now = func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
	return tr, &cur
}

func TestTracker_FirstAndLastSeen(t *testing.T) {
	tr, _ := newTestTracker()

	tr.RecordMessage("alice")
	first, _ := tr.Stats("alice")
	tr.RecordMessage("alice")
	rec, ok := tr.Stats("alice")
	if !ok {
		t.Fatal("expected record for alice")
	}
	if rec.Messages != 2 {
		t.Fatalf("expected 2 messages, got %d", rec.Messages)
	}
	if !rec.FirstSeen.Equal(first.FirstSeen) {
		t.Fatal("FirstSeen must not move on later messages")
	}
	if !rec.LastSeen.After(rec.FirstSeen) {
		t.Fatal("LastSeen should advance")
	}
}

func TestTracker_UnknownAuthor(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.Stats("ghost"); ok {
		t.Fatal("unknown author should have no record")
	}
}

func TestTracker_TopUsersDeterministic(t *testing.T) {
	tr, _ := newTestTracker()

	// A and B both send 5 messages, A's first message arrives first;
	// C sends 3.
	tr.RecordMessage("A")
	tr.RecordMessage("B")
	for i := 0; i < 4; i++ {
		tr.RecordMessage("A")
		tr.RecordMessage("B")
	}
	for i := 0; i < 3; i++ {
		tr.RecordMessage("C")
	}

	top := tr.TopUsers(10)
	want := []string{"A", "B", "C"}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i, name := range want {
		if top[i].Author != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, top[i].Author)
		}
	}
}

func TestTracker_TopUsersLimit(t *testing.T) {
	tr, _ := newTestTracker()
	for _, a := range []string{"a", "b", "c", "d"} {
		tr.RecordMessage(a)
	}
	if got := len(tr.TopUsers(2)); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}
}

func TestTracker_TotalMessages(t *testing.T) {
	tr, _ := newTestTracker()
	tr.RecordMessage("a")
	tr.RecordMessage("b")
	tr.RecordMessage("a")
	if tr.TotalMessages() != 3 {
		t.Fatalf("expected 3 total, got %d", tr.TotalMessages())
	}
}
