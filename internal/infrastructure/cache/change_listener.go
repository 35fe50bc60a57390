package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/asakaida/mdschema/internal/infrastructure/database"
	"github.com/lib/pq"
)

// Invalidator drops cached resolutions of a document.
// An empty name drops every document.
type Invalidator interface {
	Invalidate(ctx context.Context, name string) error
}

// ChangeListener keeps resolved-schema caches consistent across instances.
// It uses PostgreSQL LISTEN/NOTIFY: the schema_documents trigger publishes
// the document name on every write or delete.
type ChangeListener struct {
	mu           sync.Mutex
	connStr      string
	invalidator  Invalidator
	listener     *pq.Listener
	stopCh       chan struct{}
	started      bool
	stopped      bool
	pingInterval time.Duration

	// Logf reports listener problems; defaults to log.Printf
	Logf func(format string, args ...any)
}

// NewChangeListener creates a new ChangeListener.
// connStr is the PostgreSQL connection string for LISTEN/NOTIFY.
func NewChangeListener(connStr string, invalidator Invalidator) *ChangeListener {
	return &ChangeListener{
		connStr:      connStr,
		invalidator:  invalidator,
		stopCh:       make(chan struct{}),
		pingInterval: 90 * time.Second,
		Logf:         log.Printf,
	}
}

// Start begins listening on the change channel
func (l *ChangeListener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return fmt.Errorf("change listener already started")
	}

	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			// Not fatal: the listener reconnects on its own
			l.Logf("ChangeListener listener error: %v", err)
		}
	}
	l.listener = pq.NewListener(l.connStr, 10*time.Second, time.Minute, reportProblem)

	if err := l.listener.Listen(database.ChangeChannel); err != nil {
		l.listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", database.ChangeChannel, err)
	}

	l.started = true
	go l.handleNotifications(ctx, l.listener.Notify)
	return nil
}

// Stop stops the ChangeListener and cleans up resources.
func (l *ChangeListener) Stop() error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	close(l.stopCh)
	listener := l.listener
	l.mu.Unlock()

	if listener != nil {
		return listener.Close()
	}
	return nil
}

// handleNotifications processes incoming NOTIFY events.
func (l *ChangeListener) handleNotifications(ctx context.Context, notify <-chan *pq.Notification) {
	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ctx.Done():
			return
		case n, ok := <-notify:
			if !ok {
				return
			}
			l.apply(ctx, n)
		case <-ticker.C:
			go func() {
				if err := l.listener.Ping(); err != nil {
					l.Logf("ChangeListener ping error: %v", err)
				}
			}()
		}
	}
}

// apply invalidates what a notification names. A nil notification means
// the connection was re-established and changes may have been missed.
func (l *ChangeListener) apply(ctx context.Context, n *pq.Notification) {
	name := ""
	if n != nil {
		name = n.Extra
	}
	if err := l.invalidator.Invalidate(ctx, name); err != nil {
		l.Logf("ChangeListener failed to invalidate %q: %v", name, err)
	}
}
