package sse

import (
	"context"
	"sync"

	"ms-payments/internal/models"
)

// OrderEventEmitter broadcasts completed orders to organizer dashboards over
// SSE, keyed by event id.
type OrderEventEmitter struct {
	eventClients     map[string][]chan models.Order
	eventClientMutex sync.RWMutex
}

func NewOrderEventEmitter() *OrderEventEmitter {
	return &OrderEventEmitter{
		eventClients: make(map[string][]chan models.Order),
	}
}

// SubscribeToEvent adds a client to an event's completed-order feed. The
// client is removed when its context is done.
func (e *OrderEventEmitter) SubscribeToEvent(ctx context.Context, eventID string) chan models.Order {
	clientChan := make(chan models.Order, 10)

	e.eventClientMutex.Lock()
	e.eventClients[eventID] = append(e.eventClients[eventID], clientChan)
	e.eventClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeEventClient(eventID, clientChan)
	}()

	return clientChan
}

// EmitOrderCompleted broadcasts an order to all subscribers of its event.
func (e *OrderEventEmitter) EmitOrderCompleted(order models.Order) {
	e.eventClientMutex.RLock()
	clients := e.eventClients[order.EventID]
	e.eventClientMutex.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send so a slow client never stalls the emitter.
		select {
		case clientChan <- order:
		default:
		}
	}
}

func (e *OrderEventEmitter) removeEventClient(eventID string, clientChan chan models.Order) {
	e.eventClientMutex.Lock()
	defer e.eventClientMutex.Unlock()

	clients := e.eventClients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.eventClients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.eventClients[eventID]) == 0 {
		delete(e.eventClients, eventID)
	}
}

// ClientCount returns the number of clients subscribed to an event.
func (e *OrderEventEmitter) ClientCount(eventID string) int {
	e.eventClientMutex.RLock()
	defer e.eventClientMutex.RUnlock()
	return len(e.eventClients[eventID])
}
