package analyzer

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/becomeliminal/teachable-go/core"
	"github.com/becomeliminal/teachable-go/memory"
)

// minWords is the shortest sentence considered teachable.
const minWords = 3

var filler = map[string]bool{
	"hi": true, "hello": true, "hey": true, "thanks": true, "thank you": true,
	"ok": true, "okay": true, "bye": true, "goodbye": true, "yes": true,
	"no": true, "cool": true, "great": true, "good morning": true,
	"good night": true, "sounds good": true, "got it": true,
}

var (
	remember = regexp.MustCompile(`(?i)^(?:please\s+)?(?:remember|note|keep in mind)(?:\s+that)?[:,]?\s+(.+)$`)
	callMe   = regexp.MustCompile(`(?i)^(?:please\s+)?call me\s+(.+?)$`)
	myIs     = regexp.MustCompile(`(?i)^my\s+(.+?)\s+(?:is|are|was|were)\s+(.+)$`)
	iAm      = regexp.MustCompile(`(?i)^(?:i am|i'm)\s+(.+)$`)
	iVerb    = regexp.MustCompile(`(?i)^i\s+(?:really\s+|usually\s+|always\s+)?(like|love|prefer|enjoy|hate|dislike|work|live|have|own|use|speak|study)\s+(.+)$`)
	advice   = regexp.MustCompile(`(?i)^(?:when|whenever|if)\s+(?:you(?:'re| are)?|asked to)\s+(.+?),\s*(.+)$`)
	subject  = regexp.MustCompile(`(?i)^(.+?)\s+(?:is|are|was|were|has|have)\s+`)
)

// verbTopics maps a first-person verb to the memo topic and the third-person form.
var verbTopics = map[string][2]string{
	"like":    {"preferences", "likes"},
	"love":    {"preferences", "loves"},
	"prefer":  {"preferences", "prefers"},
	"enjoy":   {"preferences", "enjoys"},
	"hate":    {"dislikes", "hates"},
	"dislike": {"dislikes", "dislikes"},
	"work":    {"work", "works"},
	"live":    {"home", "lives"},
	"have":    {"possessions", "has"},
	"own":     {"possessions", "owns"},
	"use":     {"tools", "uses"},
	"speak":   {"languages", "speaks"},
	"study":   {"studies", "studies"},
}

// Rules extracts memos from the user's message with fixed sentence patterns.
// The first teachable sentence wins.
type Rules struct{}

// NewRules creates a rule-based analyzer.
func NewRules() *Rules {
	return &Rules{}
}

// Analyze implements memory.Analyzer.
func (r *Rules) Analyze(ctx context.Context, ex core.Exchange) (memory.Candidate, bool) {
	text := strings.TrimSpace(ex.UserMessage)
	if text == "" || filler[normalize(text)] {
		return memory.Candidate{}, false
	}

	for _, s := range sentences(text) {
		if c, ok := r.sentence(s); ok && c.Valid() {
			return c, true
		}
	}
	return memory.Candidate{}, false
}

func (r *Rules) sentence(s string) (memory.Candidate, bool) {
	if strings.HasSuffix(s, "?") || filler[normalize(s)] {
		return memory.Candidate{}, false
	}
	body := strings.TrimRight(s, ".!")
	if len(strings.Fields(body)) < minWords && !callMe.MatchString(body) {
		return memory.Candidate{}, false
	}

	if m := remember.FindStringSubmatch(body); m != nil {
		content := sentenceCase(thirdPerson(m[1]))
		return memory.Candidate{Topic: topicOf(content), Content: content}, true
	}
	if m := callMe.FindStringSubmatch(body); m != nil {
		return memory.Candidate{
			Topic:   "name",
			Content: "The user wants to be called " + strings.TrimSpace(m[1]) + ".",
		}, true
	}
	if m := myIs.FindStringSubmatch(body); m != nil {
		return memory.Candidate{
			Topic:   strings.ToLower(strings.TrimSpace(m[1])),
			Content: sentenceCase(thirdPerson(body)),
		}, true
	}
	if m := iVerb.FindStringSubmatch(body); m != nil && !transientObject(m[2]) {
		verb := verbTopics[strings.ToLower(m[1])]
		return memory.Candidate{
			Topic:   verb[0],
			Content: sentenceCase("the user " + verb[1] + " " + thirdPerson(m[2])),
		}, true
	}
	if m := iAm.FindStringSubmatch(body); m != nil && !transient(m[1]) {
		return memory.Candidate{
			Topic:   "about the user",
			Content: sentenceCase("the user is " + thirdPerson(m[1])),
		}, true
	}
	if m := advice.FindStringSubmatch(body); m != nil {
		return memory.Candidate{
			Topic:   strings.ToLower(strings.TrimSpace(m[1])),
			Content: sentenceCase(thirdPerson(body)),
		}, true
	}
	return memory.Candidate{}, false
}

// transient reports whether an "I am ..." sentence describes a passing state
// rather than a lasting fact.
func transient(rest string) bool {
	rest = strings.ToLower(rest)
	for _, p := range []string{"sorry", "not sure", "wondering", "going to", "trying", "just", "looking for", "confused"} {
		if strings.HasPrefix(rest, p) {
			return true
		}
	}
	return false
}

// transientObject reports whether the object of "I have/need ..." is about
// the current conversation, as in "I have a question".
func transientObject(rest string) bool {
	rest = strings.ToLower(rest)
	for _, p := range []string{"a question", "a quick question", "another question", "questions", "a problem", "an issue", "an error", "a bug", "trouble", "no idea", "a request"} {
		if strings.HasPrefix(rest, p) {
			return true
		}
	}
	return false
}

var pronouns = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?i)\bi am\b`), "the user is"},
	{regexp.MustCompile(`(?i)\bi'm\b`), "the user is"},
	{regexp.MustCompile(`(?i)\bi've\b`), "the user has"},
	{regexp.MustCompile(`(?i)\bi'll\b`), "the user will"},
	{regexp.MustCompile(`(?i)\bi\b`), "the user"},
	{regexp.MustCompile(`(?i)\bmy\b`), "the user's"},
	{regexp.MustCompile(`(?i)\bmine\b`), "the user's"},
	{regexp.MustCompile(`(?i)\bmyself\b`), "the user"},
	{regexp.MustCompile(`(?i)\bme\b`), "the user"},
}

// thirdPerson rewrites first-person references to refer to "the user".
func thirdPerson(s string) string {
	for _, p := range pronouns {
		s = p.re.ReplaceAllString(s, p.with)
	}
	return strings.TrimSpace(s)
}

// sentenceCase capitalises the first letter and ends with a period.
func sentenceCase(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ".!")
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r) + "."
}

// topicOf names a memo after its grammatical subject, or its first words.
func topicOf(content string) string {
	body := strings.TrimSuffix(content, ".")
	if m := subject.FindStringSubmatch(body); m != nil {
		body = m[1]
	}
	body = strings.ToLower(body)
	for _, prefix := range []string{"the user's ", "the ", "a ", "an "} {
		body = strings.TrimPrefix(body, prefix)
	}
	words := strings.Fields(body)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}

// sentences splits text after '.', '!' and '?' and on newlines, keeping
// the terminator with each sentence.
func sentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		b.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			flush()
		}
	}
	flush()
	return out
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
