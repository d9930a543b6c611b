package httpapi

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/lukasbauer/livecaption/internal/pipeline"
	"github.com/lukasbauer/livecaption/internal/store"
)

type fakePipeline struct {
	mu       sync.Mutex
	chunks   []pipeline.AudioChunk
	draining bool
}

func (f *fakePipeline) Submit(c pipeline.AudioChunk) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draining {
		return false
	}
	f.chunks = append(f.chunks, c)
	return true
}

func (f *fakePipeline) IsDraining() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draining
}

func (f *fakePipeline) Chunks() []pipeline.AudioChunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.AudioChunk(nil), f.chunks...)
}

type fakeSessions struct {
	mu      sync.Mutex
	inits   [][3]string
	cleared []string
}

func (f *fakeSessions) Init(id, l1, l2 string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits = append(f.inits, [3]string{id, l1, l2})
}

func (f *fakeSessions) Clear(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
}

type fakeTranslator struct {
	translation string
	ok          bool
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, bool) {
	if !f.ok {
		return text, false
	}
	return f.translation, true
}

type fakeArchive struct {
	mu       sync.Mutex
	sessions map[string][2]string
	cleared  []string
	captions []store.Caption
	limits   []int
	err      error
}

func (f *fakeArchive) UpsertSession(_ context.Context, id, l1, l2 string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessions == nil {
		f.sessions = map[string][2]string{}
	}
	f.sessions[id] = [2]string{l1, l2}
	return f.err
}

func (f *fakeArchive) ClearSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
	return f.err
}

func (f *fakeArchive) ListCaptions(_ context.Context, sessionID string, limit int) ([]store.Caption, error) {
	f.mu.Lock()
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []store.Caption{}
	for _, c := range f.captions {
		if c.SessionID == sessionID && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newTestRouter builds a Router directly so handlers can be called without the mux.
func newTestRouter(p *fakePipeline, s *fakeSessions) *Router {
	return &Router{
		cfg:        RouterConfig{MaxAudioBytes: 1 << 20},
		logger:     testLogger(),
		pipeline:   p,
		sessions:   s,
		translator: &fakeTranslator{translation: "Xin chào", ok: true},
		hub:        NewHub(testLogger()),
	}
}
