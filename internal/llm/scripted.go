package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ScriptedReply is one canned response for the Scripted client.
type ScriptedReply struct {
	// Pattern matches against the last message content (regex).
	// Empty matches any request.
	Pattern string

	// Reply is the assistant text to return.
	Reply string

	// Err is returned instead of Reply when set.
	Err error

	// Repeatable replies can match more than once.
	Repeatable bool
}

// Scripted implements Client with canned responses for tests.
type Scripted struct {
	mu          sync.Mutex
	scripts     []ScriptedReply
	used        map[int]bool
	calls       []Request
	fallback    string
	fallbackErr error
}

// NewScripted creates an empty scripted client. With no scripts and no
// fallback, calls fail loudly so tests cannot silently pass.
func NewScripted() *Scripted {
	return &Scripted{used: make(map[int]bool)}
}

// Script appends a reply to the sequence and returns the client for
// chaining.
func (s *Scripted) Script(reply ScriptedReply) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, reply)
	return s
}

// Fallback sets the reply used when no script matches.
func (s *Scripted) Fallback(reply string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = reply
	return s
}

// FallbackError sets the error used when no script matches.
func (s *Scripted) FallbackError(err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallbackErr = err
	return s
}

// Complete implements Client.
func (s *Scripted) Complete(_ context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)

	subject := req.System
	if len(req.Messages) > 0 {
		subject = req.Messages[len(req.Messages)-1].Content
	}

	for i, script := range s.scripts {
		if s.used[i] && !script.Repeatable {
			continue
		}
		if script.Pattern != "" {
			matched, err := regexp.MatchString(script.Pattern, subject)
			if err != nil || !matched {
				continue
			}
		}
		s.used[i] = true
		if script.Err != nil {
			return "", script.Err
		}
		return script.Reply, nil
	}

	if s.fallbackErr != nil {
		return "", s.fallbackErr
	}
	if s.fallback != "" {
		return s.fallback, nil
	}
	return "", fmt.Errorf("scripted llm: no script matched %q", truncate(subject, 80))
}

// Calls returns a copy of every request seen so far.
func (s *Scripted) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns the number of completions requested.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
