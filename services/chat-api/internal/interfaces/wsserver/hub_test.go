package wsserver

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func newTestSession() *Session {
	return &Session{
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
		log:  zerolog.Nop(),
	}
}

func drain(s *Session) [][]byte {
	var out [][]byte
	for {
		select {
		case data := <-s.send:
			out = append(out, data)
		default:
			return out
		}
	}
}

func TestHubJoinLeaveSize(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := newTestSession()
	b := newTestSession()

	hub.Join("room_1", a)
	hub.Join("room_1", b)
	if got := hub.Size("room_1"); got != 2 {
		t.Fatalf("expected size 2, got %d", got)
	}

	hub.Leave("room_1", a)
	if got := hub.Size("room_1"); got != 1 {
		t.Fatalf("expected size 1 after leave, got %d", got)
	}

	// Leaving twice is a no-op.
	hub.Leave("room_1", a)
	if got := hub.Size("room_1"); got != 1 {
		t.Fatalf("double leave changed size: %d", got)
	}

	hub.Leave("room_1", b)
	if got := hub.Size("room_1"); got != 0 {
		t.Fatalf("expected empty group pruned, got %d", got)
	}
}

func TestBroadcastExcludesOriginator(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	origin := newTestSession()
	peer := newTestSession()
	hub.Join("room_1", origin)
	hub.Join("room_1", peer)

	hub.Broadcast("room_1", map[string]string{"type": "new_message"}, origin)

	if got := drain(origin); len(got) != 0 {
		t.Fatalf("originator received %d frames", len(got))
	}
	got := drain(peer)
	if len(got) != 1 {
		t.Fatalf("peer received %d frames, expected 1", len(got))
	}

	var frame map[string]string
	if err := json.Unmarshal(got[0], &frame); err != nil {
		t.Fatalf("broadcast payload not JSON: %v", err)
	}
	if frame["type"] != "new_message" {
		t.Fatalf("unexpected frame: %v", frame)
	}
}

func TestBroadcastFilterSelectsRecipients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	wanted := newTestSession()
	other := newTestSession()
	hub.Join("room_1", wanted)
	hub.Join("room_1", other)

	hub.BroadcastFilter("room_1", map[string]string{"type": "message_status_update"}, func(s *Session) bool {
		return s == wanted
	})

	if got := drain(wanted); len(got) != 1 {
		t.Fatalf("wanted session received %d frames", len(got))
	}
	if got := drain(other); len(got) != 0 {
		t.Fatalf("filtered session received %d frames", len(got))
	}
}

func TestBroadcastToUnknownGroupIsNoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Broadcast("room_missing", map[string]string{"type": "x"}, nil)
}

func TestGroupsAreIsolated(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := newTestSession()
	b := newTestSession()
	hub.Join("room_a", a)
	hub.Join("room_b", b)

	hub.Broadcast("room_a", map[string]string{"type": "x"}, nil)

	if got := drain(b); len(got) != 0 {
		t.Fatalf("session in another room received %d frames", len(got))
	}
	if got := drain(a); len(got) != 1 {
		t.Fatalf("session in target room received %d frames", len(got))
	}
}
