package bot

import (
	"regexp"
	"testing"

	"github.com/wolfman30/botlink/internal/platform"
)

func TestMatchConditionals(t *testing.T) {
	conv := &platform.Conversation{
		ID:           "c1",
		Organization: "123",
		Status:       "open",
		Meta:         map[string]any{"stage": "qualified", "score": float64(7)},
	}
	actions := &Actions{Conversation: conv}
	msg := &platform.Message{
		Conversation: "c1",
		User:         "u1",
		Role:         platform.RoleContact,
		Type:         platform.TypeChat,
		Text:         "hello there",
	}

	tests := []struct {
		name string
		cond Conditionals
		want bool
	}{
		{"empty map always matches", Conditionals{}, true},
		{"nil map always matches", nil, true},
		{"message scalar match", Conditionals{"role": "contact"}, true},
		{"message scalar mismatch", Conditionals{"role": "agent"}, false},
		{"context field via @ prefix", Conditionals{"@organization": "123"}, true},
		{"context field mismatch", Conditionals{"@organization": "999"}, false},
		{"context status", Conditionals{"@status": "open"}, true},
		{"meta fallback", Conditionals{"stage": "qualified"}, true},
		{"meta number vs json float", Conditionals{"score": 7}, true},
		{"array any-element", Conditionals{"type": []string{"postback", "chat"}}, true},
		{"array no element", Conditionals{"type": []string{"postback", "command"}}, false},
		{"regexp value", Conditionals{"text": regexp.MustCompile(`^hello`)}, true},
		{"regexp non-match", Conditionals{"text": regexp.MustCompile(`^goodbye`)}, false},
		{"missing key fails whole map", Conditionals{"nonexistent": "x"}, false},
		{"missing key aborts despite passing sibling", Conditionals{"aaa_missing": "x", "role": "contact"}, false},
		{"all keys must pass", Conditionals{"role": "contact", "type": "postback"}, false},
		{"multiple keys all passing", Conditionals{"role": "contact", "@organization": "123", "stage": "qualified"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchConditionals(actions, msg, tt.cond); got != tt.want {
				t.Errorf("matchConditionals() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchConditionalsNilContext(t *testing.T) {
	msg := &platform.Message{Role: "contact"}

	if !matchConditionals(nil, msg, Conditionals{"role": "contact"}) {
		t.Error("message-only lookup should not need a context")
	}
	if matchConditionals(nil, msg, Conditionals{"@organization": "123"}) {
		t.Error("@ lookup without context should fail the map")
	}
}
