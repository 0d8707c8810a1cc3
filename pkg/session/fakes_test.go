package session_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/papercomputeco/devchat/pkg/chat"
	"github.com/papercomputeco/devchat/pkg/imagegen"
)

type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    [][]chat.Message
	block    chan struct{}
	started  chan struct{}
	panicked bool
}

func (f *fakeCompleter) ChatWithAI(_ context.Context, messages []chat.Message) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, slices.Clone(messages))
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	if f.panicked {
		panic("completer exploded")
	}
	return f.reply, f.err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fixedSeedImages struct {
	prompts []string
}

func (f *fixedSeedImages) GenerateImage(prompt string) string {
	f.prompts = append(f.prompts, prompt)
	return imagegen.URLFor(prompt, 1234)
}

type fakeRecorder struct {
	mu   sync.Mutex
	logs [][]chat.Message
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, log []chat.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, log)
	return "head", f.err
}

var errBoom = errors.New("boom")
