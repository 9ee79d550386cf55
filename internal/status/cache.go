package status

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

const (
	// cacheMaxTopics bounds the last-message cache; crossing it drops the
	// cacheEvictCount least recently seen topics in one sweep.
	cacheMaxTopics  = 1000
	cacheEvictCount = 100
)

// Entry is the cached most-recent message for one topic. Device and
// Building are lifted out of the payload when present.
type Entry struct {
	Topic    string
	Payload  json.RawMessage
	Device   string
	Building string
	LastSeen time.Time
}

// Cache keeps the last message per telemetry topic for the status API.
// The MQTT receive goroutine writes while HTTP handlers read.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Put stores payload as the latest message on topic, stamped at now.
// Payloads that do not parse as JSON are rejected.
func (c *Cache) Put(topic string, payload []byte, now time.Time) error {
	var meta struct {
		Device   string `json:"device"`
		Building string `json:"building"`
	}
	if err := json.Unmarshal(payload, &meta); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	raw := make(json.RawMessage, len(payload))
	copy(raw, payload)

	c.mu.Lock()
	c.entries[topic] = Entry{
		Topic:    topic,
		Payload:  raw,
		Device:   meta.Device,
		Building: meta.Building,
		LastSeen: now,
	}
	if len(c.entries) > cacheMaxTopics {
		c.evictOldest(cacheEvictCount)
	}
	c.mu.Unlock()
	return nil
}

// evictOldest removes the n least recently seen topics. Caller holds mu.
func (c *Cache) evictOldest(n int) {
	type aged struct {
		topic string
		seen  time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for topic, e := range c.entries {
		all = append(all, aged{topic: topic, seen: e.LastSeen})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seen.Before(all[j].seen) })

	if n > len(all) {
		n = len(all)
	}
	for _, a := range all[:n] {
		delete(c.entries, a.topic)
	}
}

// Last returns the cached entry for topic.
func (c *Cache) Last(topic string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[topic]
	c.mu.RUnlock()
	return e, ok
}

// Topics lists every cached entry, most recently seen first.
func (c *Cache) Topics() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out
}

// Len returns the number of cached topics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats summarizes the cache for the stats endpoint.
type Stats struct {
	ActiveTopics    int
	UniqueBuildings int
	UniqueDevices   int
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Messages without device or building fields group under "unknown".
	buildings := make(map[string]bool)
	devices := make(map[string]bool)
	for _, e := range c.entries {
		b := e.Building
		if b == "" {
			b = "unknown"
		}
		buildings[b] = true

		d := e.Device
		if d == "" {
			d = "unknown"
		}
		devices[d] = true
	}
	return Stats{
		ActiveTopics:    len(c.entries),
		UniqueBuildings: len(buildings),
		UniqueDevices:   len(devices),
	}
}
