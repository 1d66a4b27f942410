/*
dispatcher.go - Asynchronous notification queue

PURPOSE:
  Decouples requisition creation from slow or failing notifiers. Notify
  only enqueues; a single worker goroutine drains the queue and calls the
  target Notifier with a per-event timeout.

DESIGN:
  - Buffered channel, non-blocking enqueue (a full queue drops the event)
  - One attempt per event, no retries
  - Failures logged and counted in supply_notifier_failures_total
  - Stop drains what is already queued, then returns

USAGE:
  d := notify.NewDispatcher(notify.Multi{telegram, kafka}, "telegram+kafka")
  d.Start()
  defer d.Stop()

  svc := requisition.NewService(store, l, catalogSvc, d)
*/
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/supply-ledger/metrics"
	"github.com/warp/supply-ledger/requisition"
)

var (
	ErrQueueFull         = errors.New("notification queue full")
	ErrDispatcherStopped = errors.New("notification dispatcher not running")
)

// Dispatcher implements requisition.Notifier on top of a background worker.
type Dispatcher struct {
	Target    Notifier
	Name      string
	Timeout   time.Duration
	QueueSize int
	Log       logrus.FieldLogger

	queue   chan requisition.Requisition
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

// NewDispatcher creates a dispatcher; name labels its failure metric.
func NewDispatcher(target Notifier, name string) *Dispatcher {
	return &Dispatcher{
		Target:    target,
		Name:      name,
		Timeout:   15 * time.Second,
		QueueSize: 256,
		Log:       logrus.StandardLogger(),
	}
}

// Start launches the worker. Calling Start twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}
	d.queue = make(chan requisition.Requisition, d.QueueSize)
	d.stop = make(chan struct{})
	d.running = true
	d.wg.Add(1)

	go d.run()

	d.Log.WithField("notifier", d.Name).Info("notification dispatcher started")
}

// Stop drains queued events and waits for the worker to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stop)
	d.mu.Unlock()

	d.wg.Wait()
	d.Log.WithField("notifier", d.Name).Info("notification dispatcher stopped")
}

// Notify enqueues r and returns immediately.
func (d *Dispatcher) Notify(_ context.Context, r requisition.Requisition) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		metrics.NotifierFailures.WithLabelValues(d.Name).Inc()
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- r:
		return nil
	default:
		metrics.NotifierFailures.WithLabelValues(d.Name).Inc()
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case r := <-d.queue:
			d.deliver(r)
		case <-d.stop:
			for {
				select {
				case r := <-d.queue:
					d.deliver(r)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(r requisition.Requisition) {
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()

	if err := d.Target.Notify(ctx, r); err != nil {
		metrics.NotifierFailures.WithLabelValues(d.Name).Inc()
		d.Log.WithError(err).WithFields(logrus.Fields{
			"notifier":       d.Name,
			"requisition_id": r.ID,
		}).Warn("notification failed")
		return
	}
	d.Log.WithFields(logrus.Fields{"notifier": d.Name, "requisition_id": r.ID}).Debug("notification delivered")
}
