// Package events publishes habit domain events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Publisher hands one event to the sink.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// HabitEvent is the JSON body of every habit.* event.
type HabitEvent struct {
	HabitID         string    `json:"habit_id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name,omitempty"`
	Category        string    `json:"category,omitempty"`
	Outcome         string    `json:"outcome,omitempty"`
	Day             string    `json:"day,omitempty"`
	StreakCount     int       `json:"streak_count"`
	CompletionCount int       `json:"completion_count"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ChallengeEvent is the JSON body of every challenge.* event.
type ChallengeEvent struct {
	ChallengeID string    `json:"challenge_id"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	Lives       int       `json:"lives"`
	SuccessDays int       `json:"success_days"`
	MissedDays  int       `json:"missed_days"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Message is an event captured by Memory.
type Message struct {
	RoutingKey string
	Body       json.RawMessage
}

// Memory keeps published events in order so tests can assert on what was
// emitted.
type Memory struct {
	mu       sync.Mutex
	messages []Message
}

func (m *Memory) Publish(_ context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{RoutingKey: routingKey, Body: body})
	return nil
}

// Messages returns a copy of everything published so far.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// RoutingKeys lists the routing keys published so far, in order.
func (m *Memory) RoutingKeys() []string {
	msgs := m.Messages()
	keys := make([]string, len(msgs))
	for i, msg := range msgs {
		keys[i] = msg.RoutingKey
	}
	return keys
}
