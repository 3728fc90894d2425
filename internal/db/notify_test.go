package db

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

type recorder struct {
	mu          sync.Mutex
	invalidated []string
	events      []string
}

func (r *recorder) Invalidate(table, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, table+"/"+id)
}

func (r *recorder) BroadcastEvent(eventType, room string, _ json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType+"@"+room)
}

func TestParseChange(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{"cache insert", `{"table":"graph_cache","op":"insert","id":"abc"}`, EventGraphSaved, false},
		{"gallery update", `{"table":"gallery","op":"update","id":"g1"}`, EventGalleryUpdated, false},
		{"gallery delete", `{"table":"gallery","op":"delete","id":"g1"}`, EventGalleryDeleted, false},
		{"unknown table", `{"table":"other","op":"insert","id":"x"}`, "", true},
		{"missing id", `{"table":"gallery","op":"insert"}`, "", true},
		{"not json", `nope`, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseChange(tc.payload)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}

			if err == nil && c.EventType() != tc.want {
				t.Errorf("EventType() = %s, want %s", c.EventType(), tc.want)
			}
		})
	}
}

func TestNotifyBridge_HandleForwards(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	r := &recorder{}
	b := NewNotifyBridge(log, nil, r, r)

	b.handle(&pgconn.Notification{Payload: `{"table":"gallery","op":"update","id":"g1"}`})
	b.handle(&pgconn.Notification{Payload: `garbage`})

	if len(r.invalidated) != 1 || r.invalidated[0] != "gallery/g1" {
		t.Errorf("invalidated = %v", r.invalidated)
	}

	if len(r.events) != 1 || r.events[0] != "gallery.updated@g1" {
		t.Errorf("events = %v", r.events)
	}
}

func TestNextBackoff_Capped(t *testing.T) {
	d := initialBackoff
	for range 20 {
		d = nextBackoff(d)
		if d > maxBackoff*5/4 {
			t.Fatalf("backoff %s exceeds cap", d)
		}
	}

	if d < time.Duration(float64(maxBackoff)*0.75) {
		t.Errorf("backoff %s never reached the cap", d)
	}
}
