package display

import (
	"sync"
	"time"
)

// mockView is a renderer.View backed by a map.
type mockView struct {
	mu         sync.Mutex
	uuid       string
	name       string
	vars       map[string]string
	lastUpdate time.Time
}

func newMockView(uuid, name string) *mockView {
	return &mockView{uuid: uuid, name: name, vars: make(map[string]string)}
}

func (v *mockView) UUID() string         { return v.uuid }
func (v *mockView) FriendlyName() string { return v.name }

func (v *mockView) GetVariable(name string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vars[name]
}

func (v *mockView) LastUpdateTime() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastUpdate
}

func (v *mockView) set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vars[name] = value
}

// recordingPrinter keeps the current lines and every SaveScreen call.
type recordingPrinter struct {
	width int
	lines [2]string
	saves int
}

func (p *recordingPrinter) Width() int                  { return p.width }
func (p *recordingPrinter) Print(line int, text string) { p.lines[line] = text }
func (p *recordingPrinter) SaveScreen()                 { p.saves++ }

// recordingSubscriber records the calls it receives.
type recordingSubscriber struct {
	mu     sync.Mutex
	starts int
	infos  []RenderInfo
	saves  int
	exits  int
}

func (s *recordingSubscriber) OnStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
}

func (s *recordingSubscriber) OnRenderInfo(info RenderInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos = append(s.infos, info)
}

func (s *recordingSubscriber) OnSaveScreen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
}

func (s *recordingSubscriber) OnExit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exits++
}
