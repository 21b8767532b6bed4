package monitoring

import (
	"context"
	"log"
	"time"

	"helpdesk-system/models"
	"helpdesk-system/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "helpdesk_tickets_total",
			Help: "Current number of persisted tickets per status",
		},
		[]string{"status"},
	)

	unreadTickets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "helpdesk_unread_tickets_total",
			Help: "Current number of unread tickets",
		},
	)

	storeIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_store_intents_total",
			Help: "Total intents dispatched through the ticket store",
		},
		[]string{"action"},
	)

	persistWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_persist_writes_total",
			Help: "Total optimistic persistence writes by outcome",
		},
		[]string{"status"},
	)

	ticketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_ticket_operations_total",
			Help: "Total ticket access layer operations",
		},
		[]string{"operation", "status"},
	)

	assistantDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helpdesk_assistant_request_seconds",
			Help:    "Assistant completion round-trip duration",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		},
		[]string{"status"},
	)
)

// TrackStoreIntent counts one dispatched reducer intent.
func TrackStoreIntent(action string) {
	storeIntents.WithLabelValues(action).Inc()
}

// TrackPersistWrite counts one effect-runner write outcome.
func TrackPersistWrite(status string) {
	persistWrites.WithLabelValues(status).Inc()
}

// TrackTicketOperation counts one access layer operation.
func TrackTicketOperation(operation, status string) {
	ticketOperations.WithLabelValues(operation, status).Inc()
}

// TrackAssistantRequest records one assistant exchange.
func TrackAssistantRequest(duration time.Duration, status string) {
	assistantDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// Monitor periodically samples the persisted ticket collection into
// the status gauges.
type Monitor struct {
	store    *storage.Storage
	interval time.Duration
}

func NewMonitor(store *storage.Storage) *Monitor {
	return &Monitor{store: store, interval: 30 * time.Second}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *Monitor) collect(ctx context.Context) {
	tickets, err := m.store.Tickets(ctx)
	if err != nil {
		log.Printf("monitoring: collect tickets: %v", err)
		return
	}

	counts := map[models.TicketStatus]int{
		models.StatusOpen:         0,
		models.StatusInProgress:   0,
		models.StatusAwaitingUser: 0,
		models.StatusClosed:       0,
	}
	unread := 0
	for _, t := range tickets {
		counts[t.Status]++
		if !t.IsRead {
			unread++
		}
	}

	for status, count := range counts {
		ticketsByStatus.WithLabelValues(string(status)).Set(float64(count))
	}
	unreadTickets.Set(float64(unread))
}
