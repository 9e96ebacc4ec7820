package dashboard

import (
	"container/list"
	"sync"
)

// viewCache is a thread-safe LRU of built views. Keys embed the dataset
// version, so a reload makes every older entry unreachable and they age out.
type viewCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front is most recently used
}

type cacheEntry struct {
	key  string
	view *View
}

// newViewCache returns a cache holding at most maxEntries views. A size of
// zero disables caching.
func newViewCache(maxEntries int) *viewCache {
	return &viewCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *viewCache) get(key string) (*View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).view, true
}

func (c *viewCache) put(key string, view *View) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).view = view
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, view: view})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *viewCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
