package idgen

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"
)

// Generator hands out strictly increasing int64 ids. Ids track the wall
// clock in milliseconds, so they sort by creation time and stay compatible
// with timestamp ids already on disk, but two calls never return the same id.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock returns a generator reading time from now.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns the next id.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe raises the floor so later ids exceed id. Stores call it with the
// largest id they load.
func (g *Generator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

// MaxID returns the largest integer "id" field anywhere in the JSON document
// raw, or 0 when there is none.
func MaxID(raw []byte) int64 {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return 0
	}
	return maxID(doc)
}

func maxID(v any) int64 {
	var max int64
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			if n, ok := child.(json.Number); ok && k == "id" {
				if id, err := n.Int64(); err == nil && id > max {
					max = id
				}
				continue
			}
			if id := maxID(child); id > max {
				max = id
			}
		}
	case []any:
		for _, child := range v {
			if id := maxID(child); id > max {
				max = id
			}
		}
	}
	return max
}
