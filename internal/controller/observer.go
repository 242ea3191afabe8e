package controller

import (
	"github.com/nerrad567/upnp-display/internal/renderer"
)

// Observer is told when renderers come and go.
//
// Calls are made with the registry lock held, so implementations must
// return quickly and must not call back into the Registry. RemoveRenderer
// must drop every reference to the renderer before returning. Observers
// that do slow work wrap themselves in NewAsyncObserver.
type Observer interface {
	AddRenderer(uuid string, r renderer.View)
	RemoveRenderer(uuid string)
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

// AddRenderer implements Observer.
func (o Observers) AddRenderer(uuid string, r renderer.View) {
	for _, obs := range o {
		obs.AddRenderer(uuid, r)
	}
}

// RemoveRenderer implements Observer.
func (o Observers) RemoveRenderer(uuid string) {
	for _, obs := range o {
		obs.RemoveRenderer(uuid)
	}
}

// asyncQueueSize bounds pending notifications per async observer.
const asyncQueueSize = 64

type notification struct {
	add  bool
	uuid string
	view renderer.View
}

// AsyncObserver runs a slow Observer on its own goroutine so the
// registry lock is never held across its work. Notifications are
// delivered in order; when the queue is full they are dropped.
type AsyncObserver struct {
	inner  Observer
	queue  chan notification
	done   chan struct{}
	logger Logger
}

// NewAsyncObserver starts a goroutine feeding inner. Call Close to stop it.
func NewAsyncObserver(inner Observer, logger Logger) *AsyncObserver {
	if logger == nil {
		logger = noopLogger{}
	}
	a := &AsyncObserver{
		inner:  inner,
		queue:  make(chan notification, asyncQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go a.run()
	return a
}

// AddRenderer implements Observer.
func (a *AsyncObserver) AddRenderer(uuid string, r renderer.View) {
	a.enqueue(notification{add: true, uuid: uuid, view: r})
}

// RemoveRenderer implements Observer.
func (a *AsyncObserver) RemoveRenderer(uuid string) {
	a.enqueue(notification{uuid: uuid})
}

func (a *AsyncObserver) enqueue(n notification) {
	select {
	case a.queue <- n:
	default:
		a.logger.Warn("observer queue full, dropping notification", "uuid", n.uuid, "add", n.add)
	}
}

// Close delivers queued notifications and stops the goroutine.
// No notifications may be sent after Close.
func (a *AsyncObserver) Close() {
	close(a.queue)
	<-a.done
}

func (a *AsyncObserver) run() {
	defer close(a.done)
	for n := range a.queue {
		a.deliver(n)
	}
}

func (a *AsyncObserver) deliver(n notification) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic in observer", "uuid", n.uuid, "panic", r)
		}
	}()
	if n.add {
		a.inner.AddRenderer(n.uuid, n.view)
	} else {
		a.inner.RemoveRenderer(n.uuid)
	}
}
