package server

import (
	"sync"
	"time"

	"termlens/vterm"
)

// PublisherConfig tunes the frame publishing cadence.
type PublisherConfig struct {
	// Settle is how long output must stay quiet before a frame goes out.
	// It doubles as the sampling interval.
	Settle time.Duration
	// MaxInterval caps how long sustained output can postpone a publish.
	MaxInterval time.Duration
	Sink        EventSink
}

// Publisher turns emulator changes into published frames. A frame goes
// out once output has settled for one sampling interval, or at
// MaxInterval during sustained output. The state at the end of a burst
// is always published, including the final screen after child exit.
type Publisher struct {
	session     *Session
	settle      time.Duration
	maxInterval time.Duration
	sink        EventSink
	observer    PublishObserver

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	cancel   func()
}

func NewPublisher(session *Session, cfg PublisherConfig) *Publisher {
	settle := cfg.Settle
	if settle <= 0 {
		settle = 25 * time.Millisecond
	}
	maxInterval := cfg.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 250 * time.Millisecond
	}
	if maxInterval < settle {
		maxInterval = settle
	}
	sink := cfg.Sink
	if sink == nil {
		sink = nopSink{}
	}
	return &Publisher{
		session:     session,
		settle:      settle,
		maxInterval: maxInterval,
		sink:        sink,
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// SetObserver registers an optional stats observer invoked after each
// publish. Must be called before Start.
func (p *Publisher) SetObserver(observer PublishObserver) {
	p.observer = observer
}

// Start registers the change listener and launches the publish loop.
func (p *Publisher) Start() {
	p.cancel = p.session.OnScreenChange(p.onChange)
	go p.run()
}

// Stop publishes any outstanding change and waits for the loop to exit.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

// onChange runs on the session's feed goroutine and must not block.
func (p *Publisher) onChange(vterm.ChangeEvent) {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	defer p.cancel()
	ticker := time.NewTicker(p.settle)
	defer ticker.Stop()

	var (
		pending      bool      // changes observed but not yet published
		pendingSince time.Time // when the current burst was first seen
	)
	for {
		select {
		case <-p.stop:
			p.flush(pending)
			return

		case <-p.session.Done():
			// The feed loop has consumed everything the child wrote.
			p.flush(pending)
			p.session.markDrained()
			return

		case <-p.wake:
			if !pending {
				pending = true
				pendingSince = time.Now()
			}

		case now := <-ticker.C:
			changed := p.session.TakeChanged()
			if changed && !pending {
				pending = true
				pendingSince = now
				continue
			}
			if !pending {
				continue
			}
			// Publish once the burst goes quiet for a full tick, or
			// when it has been running past the interval cap.
			if !changed || now.Sub(pendingSince) >= p.maxInterval {
				p.publish()
				pending = false
			}
		}
	}
}

// flush publishes the end state of an unfinished burst, if any.
func (p *Publisher) flush(pending bool) {
	if p.session.TakeChanged() || pending {
		p.publish()
	}
}

func (p *Publisher) publish() {
	start := time.Now()
	frame, err := p.session.PublishFrame()
	if err != nil {
		return
	}
	p.sink.FramePublished(p.session, frame)
	if p.observer != nil {
		p.observer.ObservePublish(p.session, frame, time.Since(start))
	}
}
