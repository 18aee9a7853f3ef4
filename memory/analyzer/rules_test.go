package analyzer

import (
	"context"
	"testing"

	"github.com/becomeliminal/teachable-go/core"
)

func exchange(user string) core.Exchange {
	return core.NewExchange(user, "Got it.")
}

func TestRules_Teachable(t *testing.T) {
	tests := []struct {
		in      string
		topic   string
		content string
	}{
		{"My dog's name is Rex.", "dog's name", "The user's dog's name is Rex."},
		{"my favorite color is green", "favorite color", "The user's favorite color is green."},
		{"I like green tea.", "preferences", "The user likes green tea."},
		{"I work at a bakery in Lyon.", "work", "The user works at a bakery in Lyon."},
		{"I'm a nurse.", "about the user", "The user is a nurse."},
		{"Remember that the deploy key is in the vault.", "deploy key", "The deploy key is in the vault."},
		{"Call me Sam.", "name", "The user wants to be called Sam."},
		{"When you summarise documents, use bullet points.", "summarise documents", "When you summarise documents, use bullet points."},
		{"Thanks! My sister is a pilot.", "sister", "The user's sister is a pilot."},
	}

	r := NewRules()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, ok := r.Analyze(context.Background(), exchange(tt.in))
			if !ok {
				t.Fatal("expected a candidate")
			}
			if c.Topic != tt.topic {
				t.Errorf("topic = %q, want %q", c.Topic, tt.topic)
			}
			if c.Content != tt.content {
				t.Errorf("content = %q, want %q", c.Content, tt.content)
			}
		})
	}
}

func TestRules_NotTeachable(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"hi",
		"hello",
		"Hello!",
		"thanks",
		"ok",
		"What is my dog's name?",
		"Can you explain quantum tunnelling briefly?",
		"I'm not sure about that.",
		"I have a question about Go.",
		"I have a problem with my code.",
		"I really have no idea what to do.",
		"nice one",
	}

	r := NewRules()
	for _, in := range inputs {
		if c, ok := r.Analyze(context.Background(), exchange(in)); ok {
			t.Errorf("%q: expected no candidate, got %+v", in, c)
		}
	}
}

func TestRules_FirstTeachableSentenceWins(t *testing.T) {
	c, ok := NewRules().Analyze(context.Background(), exchange("Hi there. What's up? My cat is called Tom. I like jazz."))
	if !ok {
		t.Fatal("expected a candidate")
	}
	if c.Content != "The user's cat is called Tom." {
		t.Errorf("unexpected content %q", c.Content)
	}
}

func TestThirdPerson(t *testing.T) {
	tests := map[string]string{
		"I am tall":             "the user is tall",
		"I've got my keys":      "the user has got the user's keys",
		"tell me about it":      "tell the user about it",
		"this is mine":          "this is the user's",
		"it is in the cupboard": "it is in the cupboard",
	}
	for in, want := range tests {
		if got := thirdPerson(in); got != want {
			t.Errorf("thirdPerson(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSentences(t *testing.T) {
	got := sentences("One. Two? Three!\nFour 3.5 five")
	want := []string{"One.", "Two?", "Three!", "Four 3.5 five"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] %q, want %q", i, got[i], want[i])
		}
	}
}
