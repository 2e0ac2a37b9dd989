package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"streamnova/internal/domain"
)

// Prefix marks a chat message as a command.
const Prefix = "!"

// genericFailure is returned when a handler errors or panics. Handlers must
// never take the read loop down with them.
const genericFailure = "Sorry, that command failed. Try again in a bit!"

// Handler executes a command. arg is the raw text after the command token;
// each handler interprets its own argument grammar.
type Handler func(ctx context.Context, c *Context, arg string) (string, error)

// Descriptor describes one registered command. Descriptors are created at
// startup and never mutated afterwards.
type Descriptor struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	AdminOnly   bool
	Handler     Handler
}

// Context carries per-invocation data into a command handler. A fresh
// Context is built for every dispatch and not retained.
type Context struct {
	Author     string
	RawMessage string
	Timestamp  time.Time

	Profile    domain.Profile
	Stats      domain.StatsProvider
	AdminUsers []string

	Logger *slog.Logger
}

// IsAdmin reports whether the author is a configured admin. The comparison
// is case-sensitive on the trimmed author name; a mismatch logs both sides
// of the comparison so operators can spot invisible-character problems.
func (c *Context) IsAdmin() bool {
	author := strings.TrimSpace(c.Author)
	for _, admin := range c.AdminUsers {
		if author == admin {
			return true
		}
	}
	c.Logger.Debug("admin check failed",
		"author", author,
		"author_len", len(author),
		"admin_users", c.AdminUsers)
	return false
}

// DenyAdmin formats the denial message for an admin-only command.
func (c *Context) DenyAdmin() string {
	return fmt.Sprintf("Sorry %s, only admins can use this command. Admins: %s",
		c.Author, strings.Join(c.AdminUsers, ", "))
}

// Registry holds the command table. Lookups are case-insensitive over both
// names and aliases.
type Registry struct {
	byToken map[string]*Descriptor
	ordered []*Descriptor
	logger  *slog.Logger
}

// DuplicateNameError reports a name or alias collision between two
// registered commands.
type DuplicateNameError struct {
	Token string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("command token %q is already registered", e.Token)
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byToken: make(map[string]*Descriptor),
		logger:  logger,
	}
}

// Register adds a descriptor to the registry. It fails with a
// DuplicateNameError when the name or any alias is already claimed.
func (r *Registry) Register(d *Descriptor) error {
	tokens := append([]string{d.Name}, d.Aliases...)
	for _, tok := range tokens {
		key := strings.ToLower(tok)
		if _, exists := r.byToken[key]; exists {
			return &DuplicateNameError{Token: tok}
		}
	}
	for _, tok := range tokens {
		r.byToken[strings.ToLower(tok)] = d
	}
	r.ordered = append(r.ordered, d)
	r.logger.Debug("registered command", "name", d.Name, "aliases", d.Aliases)
	return nil
}

// Resolve looks up a command token (without the prefix) by name or alias.
func (r *Registry) Resolve(token string) (*Descriptor, bool) {
	d, ok := r.byToken[strings.ToLower(token)]
	return d, ok
}

// All returns the registered commands in registration order, one entry per
// command regardless of aliases.
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Dispatch parses text as a command invocation and runs the matching
// handler. It returns ("", false) when the text is not a command or no
// descriptor matches. Handler panics and errors are contained and logged;
// the caller receives a generic failure string instead.
func (r *Registry) Dispatch(ctx context.Context, text string, c *Context) (response string, handled bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Prefix) {
		return "", false
	}

	token, arg := splitCommand(text)
	if token == "" {
		return "", false
	}
	d, ok := r.Resolve(token)
	if !ok {
		return "", false
	}
	return r.run(ctx, d, c, arg), true
}

// Run executes an already-resolved descriptor against the raw message.
func (r *Registry) Run(ctx context.Context, d *Descriptor, c *Context) string {
	_, arg := splitCommand(strings.TrimSpace(c.RawMessage))
	return r.run(ctx, d, c, arg)
}

func (r *Registry) run(ctx context.Context, d *Descriptor, c *Context, arg string) (response string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("command handler panicked",
				"command", d.Name, "author", c.Author, "args", arg, "panic", rec)
			response = genericFailure
		}
	}()

	if d.AdminOnly && !c.IsAdmin() {
		return c.DenyAdmin()
	}

	resp, err := d.Handler(ctx, c, arg)
	if err != nil {
		r.logger.Error("command handler failed",
			"command", d.Name, "author", c.Author, "args", arg, "error", err)
		return genericFailure
	}
	return resp
}

// splitCommand separates the prefixed command token from the raw argument
// string. Only the first whitespace split happens here; argument grammar is
// the handler's business.
func splitCommand(text string) (token, arg string) {
	body := strings.TrimPrefix(text, Prefix)
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ""
	}
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		return body[:i], strings.TrimSpace(body[i+1:])
	}
	return body, ""
}
