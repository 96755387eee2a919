// Package pagelru implements the page-grained LRU cache collaborator: pages
// are the unit of insertion/eviction, blocks within a page are the unit of
// hit/miss accounting. Grounded on original_source/impl/include/lru.h and
// impl/src/lru.cpp, restructured around a circular doubly-linked list in the
// style of the teacher's internal/clockpro ring (metaNode/append/remove)
// rather than a Hot/Cold/Test state machine, since this collaborator is
// plain LRU.
//
// © 2025 dbsp authors. MIT License.
package pagelru

import (
    "fmt"

    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

// Page describes one page-sized segment of a request: which page it falls
// in, the block offset within that page the segment starts at, and how many
// blocks of the page the segment covers.
type Page struct {
    ID        uint64
    BlockID   uint64
    NumBlocks uint64
}

func maxBlocksPerPage(p dbsptypes.CacheParams) uint64 { return p.PageSize / p.BlockSize }

// getPage computes the page containing block beginID, clamped to end at
// either the page boundary or endID, whichever comes first. Returns the
// zero Page (NumBlocks == 0) once beginID has reached or passed endID — the
// sentinel pagesForRequest uses to stop.
func getPage(params dbsptypes.CacheParams, beginID, endID uint64) Page {
    if beginID >= endID {
        return Page{}
    }

    maxBlocks := maxBlocksPerPage(params)
    pageIdx := beginID / maxBlocks
    pageStart := pageIdx * maxBlocks
    pageEnd := pageStart + maxBlocks

    startInPage := beginID - pageStart
    endInPage := maxBlocks
    if pageStart < endID && endID < pageEnd {
        endInPage = endID - pageStart
    }

    return Page{ID: pageIdx, BlockID: startInPage, NumBlocks: endInPage - startInPage}
}

// pagesForRequest decomposes req into the ordered sequence of page segments
// it touches. Collapses the original's forward-iterator (PageIterator) into
// a plain slice builder, idiomatic for a bounded, eagerly-consumed sequence.
func pagesForRequest(params dbsptypes.CacheParams, req dbsptypes.Request) []Page {
    maxBlocks := maxBlocksPerPage(params)
    beginBlock := req.StartAddr / params.BlockSize
    endBlock := beginBlock + req.SizeBytes/params.BlockSize

    var pages []Page
    for {
        page := getPage(params, beginBlock, endBlock)
        if page.NumBlocks == 0 {
            break
        }
        pages = append(pages, page)
        beginBlock = page.ID*maxBlocks + page.BlockID + page.NumBlocks
    }
    return pages
}

// VerifyParams checks the cache/page/block multiple invariants required of
// any CacheParams used to construct an LruCache.
func VerifyParams(p dbsptypes.CacheParams) error {
    if p.CacheSize%p.PageSize != 0 {
        return fmt.Errorf("pagelru: cache_size %d is not a multiple of page_size %d", p.CacheSize, p.PageSize)
    }
    if p.CacheSize%p.BlockSize != 0 {
        return fmt.Errorf("pagelru: cache_size %d is not a multiple of block_size %d", p.CacheSize, p.BlockSize)
    }
    if p.PageSize%p.BlockSize != 0 {
        return fmt.Errorf("pagelru: page_size %d is not a multiple of block_size %d", p.PageSize, p.BlockSize)
    }
    return nil
}

// VerifyRequest checks that req is aligned to block_size in both offset and
// size.
func VerifyRequest(req dbsptypes.Request, p dbsptypes.CacheParams) error {
    if req.SizeBytes%p.BlockSize != 0 {
        return fmt.Errorf("pagelru: size_bytes %d is not a multiple of block_size %d", req.SizeBytes, p.BlockSize)
    }
    if req.StartAddr%p.BlockSize != 0 {
        return fmt.Errorf("pagelru: start_addr %d is not a multiple of block_size %d", req.StartAddr, p.BlockSize)
    }
    return nil
}
