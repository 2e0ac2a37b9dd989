// Package router classifies incoming chat messages. It is a pure
// classifier: it never posts messages or mutates state, callers act on the
// verdict.
package router

import (
	"log/slog"
	"strings"
	"unicode"

	"streamnova/internal/command"
)

// Kind is the routing outcome for one message.
type Kind string

const (
	KindIgnore  Kind = "ignore"
	KindCommand Kind = "command"
	KindSkill   Kind = "skill"
	KindLLM     Kind = "llm"
)

// Skill hints produced by the classifier. The skill registry maps them to
// concrete handlers.
const (
	SkillGreeting = "greeting"
	SkillSpecs    = "specs"
	SkillHelp     = "help"
)

// Verdict is the single classification result for one message.
type Verdict struct {
	Kind    Kind
	Command *command.Descriptor // set when Kind == KindCommand
	Args    string              // raw argument string for a command
	Skill   string              // hint when Kind == KindSkill
}

// Words configures the router's vocabulary. All matching is
// case-insensitive.
type Words struct {
	// BotNames is the accepted-name set: configured display name, the
	// streamer identity and generic aliases such as "bot" and "host".
	BotNames []string
	// AddressWords open a message aimed at another person ("you", "dude").
	AddressWords []string
	Greetings    []string
	// QuestionWords start a question ("what", "kya", ...).
	QuestionWords []string
	SpecsKeywords []string
	HelpKeywords  []string
}

// DefaultWords returns the stock vocabulary. BotNames must still be
// supplied from configuration.
func DefaultWords() Words {
	return Words{
		AddressWords:  []string{"you", "dude", "bro"},
		Greetings:     []string{"hi", "hello", "hey", "namaste", "namaskar", "hii", "hlo"},
		QuestionWords: []string{"what", "why", "how", "who", "when", "where", "kya", "kaise", "kab", "kahan", "kyun"},
		SpecsKeywords: []string{"specs", "pc", "system", "gpu", "cpu", "ram", "setup", "config"},
		HelpKeywords:  []string{"help", "madad", "question", "sawal", "puch"},
	}
}

// groupWords are greeting tails that still address the whole room, not a
// particular viewer.
var groupWords = map[string]struct{}{
	"everyone": {}, "everybody": {}, "all": {}, "chat": {}, "guys": {},
	"folks": {}, "there": {}, "yall": {}, "y'all": {},
}

// Router decides, for one (author, text) pair, whether the bot stays
// silent, runs a command, fires a skill, or escalates to the LLM.
// Evaluation is strictly ordered and the first matching rule wins. The
// contract is deliberately conservative: never respond unless the message
// is a command or clearly addressed to or about the bot.
type Router struct {
	registry *command.Registry
	logger   *slog.Logger

	botNames  map[string]struct{}
	address   map[string]struct{}
	greetings map[string]struct{}
	questions map[string]struct{}
	specs     []string
	help      []string
}

func New(registry *command.Registry, words Words, logger *slog.Logger) *Router {
	return &Router{
		registry:  registry,
		logger:    logger,
		botNames:  lowerSet(words.BotNames),
		address:   lowerSet(words.AddressWords),
		greetings: lowerSet(words.Greetings),
		questions: lowerSet(words.QuestionWords),
		specs:     lowerAll(words.SpecsKeywords),
		help:      lowerAll(words.HelpKeywords),
	}
}

func lowerSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

// Classify produces exactly one verdict for the message.
func (r *Router) Classify(author, text string) Verdict {
	text = strings.TrimSpace(text)
	if text == "" {
		return Verdict{Kind: KindIgnore}
	}

	// Rule 1: command prefix. An unrecognized !token is not auto-ignored;
	// the full text falls through to the conversational rules.
	if strings.HasPrefix(text, command.Prefix) {
		if token, arg, ok := splitCommandToken(text); ok {
			if d, found := r.registry.Resolve(token); found {
				r.logger.Debug("classified command", "author", author, "command", d.Name)
				return Verdict{Kind: KindCommand, Command: d, Args: arg}
			}
		}
	}

	tokens := tokenize(text)
	lower := strings.ToLower(text)

	// Rule 2: any @mention of someone other than the bot means two viewers
	// are talking to each other.
	mentioned, addressed := r.scanMentions(tokens)
	if mentioned && !addressed {
		return Verdict{Kind: KindIgnore}
	}
	if !addressed {
		// The bot's name as a plain token counts as being addressed too.
		addressed = r.containsBotName(tokens)
	}

	// Rule 3: messages opening with a second-person address aimed at a
	// viewer ("you ...", "hey Alice ...") are presumed viewer-to-viewer.
	if !addressed && r.addressesAnotherViewer(tokens) {
		return Verdict{Kind: KindIgnore}
	}

	// Rule 5: standalone greeting.
	if r.isStandaloneGreeting(tokens) {
		return Verdict{Kind: KindSkill, Skill: SkillGreeting}
	}

	// Rule 6: a question aimed at the streamer or the bot.
	if r.isQuestion(text, tokens) {
		if r.mentionsSecondPerson(tokens) || addressed || containsAny(lower, r.specs) {
			if containsAny(lower, r.specs) {
				return Verdict{Kind: KindSkill, Skill: SkillSpecs}
			}
			return Verdict{Kind: KindLLM}
		}
	}

	// Rule 7: explicit help request.
	if containsAny(lower, r.help) {
		return Verdict{Kind: KindSkill, Skill: SkillHelp}
	}

	// Rule 4 carries no terminal action of its own: a bot-name mention
	// that matched none of the rules above still deserves an answer.
	if addressed {
		return Verdict{Kind: KindLLM}
	}

	// Rule 8: silence is preferred over interrupting unrelated chat.
	return Verdict{Kind: KindIgnore}
}

// token is one whitespace-delimited word with surrounding punctuation
// stripped, in both original and lowered form.
type token struct {
	raw     string // original casing, punctuation trimmed
	lower   string
	mention bool // started with '@'
}

func tokenize(text string) []token {
	fields := strings.Fields(text)
	tokens := make([]token, 0, len(fields))
	for _, f := range fields {
		mention := strings.HasPrefix(f, "@")
		trimmed := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && r != '\''
		})
		if trimmed == "" {
			continue
		}
		tokens = append(tokens, token{
			raw:     trimmed,
			lower:   strings.ToLower(trimmed),
			mention: mention,
		})
	}
	return tokens
}

func splitCommandToken(text string) (tok, arg string, ok bool) {
	body := strings.TrimSpace(strings.TrimPrefix(text, command.Prefix))
	if body == "" {
		return "", "", false
	}
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		return body[:i], strings.TrimSpace(body[i+1:]), true
	}
	return body, "", true
}

// scanMentions reports whether any @mention exists and whether every
// @mention resolves to the bot's own name set.
func (r *Router) scanMentions(tokens []token) (mentioned, allBot bool) {
	allBot = true
	for _, t := range tokens {
		if !t.mention {
			continue
		}
		mentioned = true
		if _, ok := r.botNames[t.lower]; !ok {
			allBot = false
		}
	}
	if !mentioned {
		return false, false
	}
	return true, allBot
}

func (r *Router) containsBotName(tokens []token) bool {
	for _, t := range tokens {
		if _, ok := r.botNames[t.lower]; ok {
			return true
		}
	}
	return false
}

func (r *Router) addressesAnotherViewer(tokens []token) bool {
	if len(tokens) == 0 {
		return false
	}
	first := tokens[0]

	// "you ...", "dude ..." where what follows is not a question word.
	if _, ok := r.address[first.lower]; ok {
		if len(tokens) == 1 {
			return true
		}
		_, question := r.questions[tokens[1].lower]
		return !question
	}

	// "hey Alice, ..." aimed at a named viewer. Greetings to the room
	// ("hey everyone") or to the bot stay eligible.
	if _, ok := r.greetings[first.lower]; ok && len(tokens) >= 2 {
		second := tokens[1]
		if _, bot := r.botNames[second.lower]; bot {
			return false
		}
		if _, group := groupWords[second.lower]; group {
			return false
		}
		if _, greet := r.greetings[second.lower]; greet {
			return false
		}
		if looksLikeName(second.raw) {
			return true
		}
	}
	return false
}

// looksLikeName treats a capitalized or @-style token as a username.
func looksLikeName(raw string) bool {
	for _, r := range raw {
		return unicode.IsUpper(r)
	}
	return false
}

// isStandaloneGreeting accepts a greeting on its own or followed only by
// more greetings, group words or the bot's name.
func (r *Router) isStandaloneGreeting(tokens []token) bool {
	if len(tokens) == 0 {
		return false
	}
	if _, ok := r.greetings[tokens[0].lower]; !ok {
		return false
	}
	for _, t := range tokens[1:] {
		if _, ok := r.greetings[t.lower]; ok {
			continue
		}
		if _, ok := groupWords[t.lower]; ok {
			continue
		}
		if _, ok := r.botNames[t.lower]; ok {
			continue
		}
		return false
	}
	return true
}

func (r *Router) isQuestion(text string, tokens []token) bool {
	if strings.Contains(text, "?") {
		return true
	}
	if len(tokens) == 0 {
		return false
	}
	_, ok := r.questions[tokens[0].lower]
	return ok
}

// mentionsSecondPerson finds "you"/"your" style tokens referring to the
// streamer or bot.
func (r *Router) mentionsSecondPerson(tokens []token) bool {
	for _, t := range tokens {
		switch t.lower {
		case "you", "your", "yours", "u", "ur":
			return true
		}
	}
	return false
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
