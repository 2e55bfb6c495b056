package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ProductionEvent is the message a line sensor publishes when a car leaves the conveyor.
type ProductionEvent struct {
	EventID   string `json:"event_id"`
	CarModel  string `json:"car_model"`
	Timestamp int64  `json:"timestamp,omitempty"` // Unix ms
}

// DecodeProductionEvent parses a Kafka message value. When the payload has no
// car model, the message key is used instead.
func DecodeProductionEvent(key, value []byte) (ProductionEvent, error) {
	var ev ProductionEvent
	if len(value) > 0 {
		if err := json.Unmarshal(value, &ev); err != nil {
			return ProductionEvent{}, fmt.Errorf("decode production event: %w", err)
		}
	}
	ev.CarModel = strings.TrimSpace(ev.CarModel)
	if ev.CarModel == "" {
		ev.CarModel = strings.TrimSpace(string(key))
	}
	if ev.CarModel == "" {
		return ProductionEvent{}, fmt.Errorf("production event has no car model")
	}
	return ev, nil
}

func (e ProductionEvent) OccurredAt() time.Time {
	if e.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Timestamp).UTC()
}
