package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samaelod/anycan/testcase"
)

type promptKind int

const (
	promptConfirmNext promptKind = iota
	promptNextQueue
)

// promptMsg carries a question from a sequence worker to the UI. The UI
// answers exactly once on reply.
type promptMsg struct {
	kind  promptKind
	text  string
	reply chan promptReply
}

type promptReply struct {
	yes bool
	dir string // folder chosen for a new queue
}

// Prompter asks the operator through the running program. It satisfies
// engine.Prompter.
type Prompter struct {
	send func(tea.Msg)
	list func(dir string) ([]string, error)
}

func NewPrompter(send func(tea.Msg)) *Prompter {
	return &Prompter{send: send, list: testcase.List}
}

func (p *Prompter) ask(ctx context.Context, kind promptKind, text string) (promptReply, bool) {
	if p == nil || p.send == nil {
		return promptReply{}, false
	}
	reply := make(chan promptReply, 1)
	p.send(promptMsg{kind: kind, text: text, reply: reply})
	select {
	case r := <-reply:
		return r, true
	case <-ctx.Done():
		return promptReply{}, false
	}
}

func (p *Prompter) ConfirmNext(ctx context.Context, next, total int) bool {
	text := fmt.Sprintf("Current test case completed. Load next test case? (%d/%d)", next+1, total)
	r, ok := p.ask(ctx, promptConfirmNext, text)
	return ok && r.yes
}

func (p *Prompter) NextQueue(ctx context.Context, reason error) ([]string, bool) {
	text := "All test cases completed! Would you like to select a new folder?"
	if reason != nil {
		text = fmt.Sprintf("Test case queue stopped: %v. Select a new folder?", reason)
	}
	r, ok := p.ask(ctx, promptNextQueue, text)
	if !ok || !r.yes || r.dir == "" {
		return nil, false
	}
	paths, err := p.list(r.dir)
	if err != nil || len(paths) == 0 {
		return nil, false
	}
	return paths, true
}
