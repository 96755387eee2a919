package pagelru

import "github.com/ValikVad/dbsp/pkg/dbsptypes"

// blockEntry is the per-block bookkeeping tuple. FromPredictor marks a block
// that was inserted by Prefetch rather than Read/Write; NumReads counts how
// many times it has since been read as a hit. A block evicted while
// FromPredictor && NumReads == 0 counts toward EvictedUnused.
type blockEntry struct {
    FromPredictor bool
    NumReads      uint32
}

// pageNode is one node of the circular doubly-linked recency list, in the
// style of the teacher's internal/clockpro metaNode ring. The head is the
// most recently used page; head.prev is the least recently used.
type pageNode struct {
    next, prev *pageNode
    id         uint64
    blocks     map[uint64]*blockEntry
}

// LruCache is the page-grained LRU collaborator described in spec §4.8:
// pages are the unit of insertion/eviction, blocks the unit of hit/miss
// accounting. Not safe for concurrent use; callers serialize access
// externally (pkg/cache adds no lock of its own).
type LruCache struct {
    params        dbsptypes.CacheParams
    maxPages      uint64
    blocksPerPage uint64

    head  *pageNode
    index map[uint64]*pageNode
    size  uint64
}

// New constructs an uninitialized LruCache; call Init before use.
func New() *LruCache { return &LruCache{} }

// Init validates params and sizes the cache for cache_size/page_size pages.
func (c *LruCache) Init(params dbsptypes.CacheParams) error {
    if err := VerifyParams(params); err != nil {
        return err
    }
    c.params = params
    c.maxPages = params.CacheSize / params.PageSize
    c.blocksPerPage = params.PageSize / params.BlockSize
    c.head = nil
    c.index = make(map[uint64]*pageNode)
    c.size = 0
    return nil
}

func (c *LruCache) pushFront(n *pageNode) {
    if c.head == nil {
        n.next, n.prev = n, n
        c.head = n
        return
    }
    tail := c.head.prev
    tail.next = n
    n.prev = tail
    n.next = c.head
    c.head.prev = n
    c.head = n
}

func (c *LruCache) remove(n *pageNode) {
    if n.next == n {
        c.head = nil
        return
    }
    n.prev.next = n.next
    n.next.prev = n.prev
    if c.head == n {
        c.head = n.next
    }
}

func (c *LruCache) moveToFront(n *pageNode) {
    if c.head == n {
        return
    }
    c.remove(n)
    c.pushFront(n)
}

// getOrInsert returns the page for id, touching it as most-recently-used.
// If id was not already cached, a fresh page is inserted at the front and,
// if this overflows cache capacity, the least-recently-used page is
// returned as evicted.
func (c *LruCache) getOrInsert(id uint64) (page *pageNode, evicted *pageNode) {
    if n, ok := c.index[id]; ok {
        c.moveToFront(n)
        return n, nil
    }

    n := &pageNode{id: id, blocks: make(map[uint64]*blockEntry)}
    c.pushFront(n)
    c.index[id] = n
    c.size++

    if c.size > c.maxPages {
        evictNode := c.head.prev
        c.remove(evictNode)
        delete(c.index, evictNode.id)
        c.size--
        return n, evictNode
    }
    return n, nil
}

func evictedUnusedCount(evicted *pageNode) uint32 {
    if evicted == nil {
        return 0
    }
    var n uint32
    for _, b := range evicted.blocks {
        if b.FromPredictor && b.NumReads == 0 {
            n++
        }
    }
    return n
}

// Write inserts any blocks of req that are missing, marked not-from-
// predictor. No hit/miss accounting.
func (c *LruCache) Write(req dbsptypes.Request) (dbsptypes.Response, error) {
    if err := VerifyRequest(req, c.params); err != nil {
        return dbsptypes.Response{}, err
    }

    var resp dbsptypes.Response
    for _, pg := range pagesForRequest(c.params, req) {
        page, evicted := c.getOrInsert(pg.ID)
        resp.EvictedUnused += evictedUnusedCount(evicted)

        for x := uint64(0); x < pg.NumBlocks; x++ {
            blk := pg.BlockID + x
            if _, ok := page.blocks[blk]; !ok {
                page.blocks[blk] = &blockEntry{FromPredictor: false}
            }
        }
    }
    return resp, nil
}

// Read counts per-block hits and misses, increments NumReads on hit, and
// inserts missing blocks as not-from-predictor.
func (c *LruCache) Read(req dbsptypes.Request) (dbsptypes.Response, error) {
    if err := VerifyRequest(req, c.params); err != nil {
        return dbsptypes.Response{}, err
    }

    var resp dbsptypes.Response
    for _, pg := range pagesForRequest(c.params, req) {
        page, evicted := c.getOrInsert(pg.ID)
        resp.EvictedUnused += evictedUnusedCount(evicted)

        for x := uint64(0); x < pg.NumBlocks; x++ {
            blk := pg.BlockID + x
            if b, ok := page.blocks[blk]; ok {
                resp.Hits++
                b.NumReads++
            } else {
                resp.Misses++
                page.blocks[blk] = &blockEntry{FromPredictor: false}
            }
        }
    }
    return resp, nil
}

// Prefetch inserts missing blocks marked from-predictor and counts them.
func (c *LruCache) Prefetch(req dbsptypes.Request) (dbsptypes.Response, error) {
    if err := VerifyRequest(req, c.params); err != nil {
        return dbsptypes.Response{}, err
    }

    var resp dbsptypes.Response
    for _, pg := range pagesForRequest(c.params, req) {
        page, evicted := c.getOrInsert(pg.ID)
        resp.EvictedUnused += evictedUnusedCount(evicted)

        for x := uint64(0); x < pg.NumBlocks; x++ {
            blk := pg.BlockID + x
            if _, ok := page.blocks[blk]; !ok {
                resp.Prefetched++
                page.blocks[blk] = &blockEntry{FromPredictor: true}
            }
        }
    }
    return resp, nil
}
