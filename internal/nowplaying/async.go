package nowplaying

import (
	"github.com/nerrad567/upnp-display/internal/display"
)

// asyncQueueSize bounds pending samples per async subscriber.
const asyncQueueSize = 64

type eventKind int

const (
	eventStart eventKind = iota
	eventInfo
	eventSaveScreen
	eventExit
)

type event struct {
	kind eventKind
	info display.RenderInfo
}

// AsyncSubscriber runs a slow display.Subscriber on its own goroutine so
// the sampler's tick never waits on I/O. Samples are delivered in order
// and dropped when the queue is full. OnExit is never dropped: it waits
// for the queue to drain and the inner OnExit to return.
type AsyncSubscriber struct {
	inner  display.Subscriber
	queue  chan event
	done   chan struct{}
	logger Logger
}

// NewAsyncSubscriber starts a goroutine feeding inner.
func NewAsyncSubscriber(inner display.Subscriber, logger Logger) *AsyncSubscriber {
	if logger == nil {
		logger = noopLogger{}
	}
	a := &AsyncSubscriber{
		inner:  inner,
		queue:  make(chan event, asyncQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go a.run()
	return a
}

// OnStart implements display.Subscriber.
func (a *AsyncSubscriber) OnStart() { a.enqueue(event{kind: eventStart}) }

// OnRenderInfo implements display.Subscriber.
func (a *AsyncSubscriber) OnRenderInfo(info display.RenderInfo) {
	a.enqueue(event{kind: eventInfo, info: info})
}

// OnSaveScreen implements display.Subscriber.
func (a *AsyncSubscriber) OnSaveScreen() { a.enqueue(event{kind: eventSaveScreen}) }

// OnExit implements display.Subscriber. No calls may follow it.
func (a *AsyncSubscriber) OnExit() {
	a.queue <- event{kind: eventExit}
	close(a.queue)
	<-a.done
}

func (a *AsyncSubscriber) enqueue(e event) {
	select {
	case a.queue <- e:
	default:
		a.logger.Warn("subscriber queue full, dropping sample")
	}
}

func (a *AsyncSubscriber) run() {
	defer close(a.done)
	for e := range a.queue {
		a.deliver(e)
	}
}

func (a *AsyncSubscriber) deliver(e event) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic in subscriber", "panic", r)
		}
	}()
	switch e.kind {
	case eventStart:
		a.inner.OnStart()
	case eventInfo:
		a.inner.OnRenderInfo(e.info)
	case eventSaveScreen:
		a.inner.OnSaveScreen()
	case eventExit:
		a.inner.OnExit()
	}
}
