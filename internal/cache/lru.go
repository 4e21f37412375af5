package cache

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Key identifies a cached completion. Derivation is deterministic; collisions
// only cost a stale suggestion, never correctness.
type Key uint64

const keyContextChars = 200

// DeriveKey hashes (site, tail of beforeCursor, language) into a stable key.
func DeriveKey(site, beforeCursor, language string) Key {
	tail := beforeCursor
	if r := []rune(beforeCursor); len(r) > keyContextChars {
		tail = string(r[len(r)-keyContextChars:])
	}

	h := xxhash.New()
	h.WriteString(site)
	h.Write([]byte{0x1f})
	h.WriteString(tail)
	h.Write([]byte{0x1f})
	h.WriteString(language)
	return Key(h.Sum64())
}

type entry struct {
	key  Key
	text string
}

// LRU is a bounded least-recently-used cache of cleaned completions. Both Get
// and Set count as a touch.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[Key]*list.Element
}

// NewLRU creates an LRU cache with the given capacity.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = 64
	}
	return &LRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element),
	}
}

// Get returns the cached completion and promotes the entry to
// most-recently-used.
func (c *LRU) Get(k Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[k]
	if !ok {
		return "", false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).text, true
}

// Set stores a completion, evicting the least-recently-touched entry when the
// cache is over capacity.
func (c *LRU) Set(k Key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[k]; ok {
		el.Value.(*entry).text = text
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&entry{key: k, text: text})
	c.items[k] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Resize changes the capacity and discards all entries. Entries are not
// migrated across capacity changes.
func (c *LRU) Resize(capacity int) {
	if capacity <= 0 {
		capacity = 64
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = capacity
	c.ll = list.New()
	c.items = make(map[Key]*list.Element)
}
