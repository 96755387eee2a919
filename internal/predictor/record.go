package predictor

import (
    "math"
    "sort"

    "github.com/ValikVad/dbsp/pkg/dbsptypes"
    "github.com/ValikVad/dbsp/internal/ring"
)

// timestampedEntry is a Request plus every timestamp at which that address
// was observed, in non-decreasing order. Grounded on
// original_source/impl/include/dbsp.h's Entry<T> template.
type timestampedEntry struct {
    dbsptypes.Request
    Times []int64
}

func (e timestampedEntry) Count() int { return len(e.Times) }

func (e timestampedEntry) firstStamp() int64 {
    if len(e.Times) == 0 {
        return 0
    }
    return e.Times[0]
}

func entryKey(e timestampedEntry) uint64 { return e.Key() }

// recordTable holds observations by start_addr, classifying each entry into
// a recording ring (not yet mining-eligible) or a mining ring (eligible,
// awaiting a mining pass). Grounded on
// original_source/impl/src/dbsp.cpp's DBSP::RecordTable.
type recordTable struct {
    recording *ring.BoundedRingIndex[timestampedEntry]
    mining    *ring.PlainRing[timestampedEntry]
}

func newRecordTable(recordRows, miningRows int) *recordTable {
    return &recordTable{
        recording: ring.New[timestampedEntry](recordRows, entryKey),
        mining:    ring.NewPlain[timestampedEntry](miningRows),
    }
}

// Available reports how many entries currently sit in the mining ring; the
// predictor triggers a mining pass once this reaches mining_table_num_rows.
func (t *recordTable) Available() int { return t.mining.Len() }

// Insert pushes request into the recording ring (a no-op if already
// present), reconciles a re-observed entry's size per the size-update
// policy, appends ts, and classifies the resulting entry by observation count.
func (t *recordTable) Insert(req dbsptypes.Request, ts int64, params Params) {
    stored, idx, inserted := t.recording.Push(timestampedEntry{Request: req})

    if !inserted {
        stored.SizeBytes = calcSize(stored.SizeBytes, req.SizeBytes, params.LimitSizeForSizePolicy, params.ReqSizeUpdatePolicy)
    }
    stored.Times = append(stored.Times, ts)
    t.recording.Set(idx, stored)

    count := stored.Count()
    switch {
    case count == int(params.MinSupport):
        // Eligible for mining: move out of the recording ring entirely.
        moved, _ := t.recording.ExtractAt(idx)
        t.mining.Push(moved)
    case count > int(params.MaxSupport):
        // Too frequent to be a useful predictor; drop it.
        t.recording.ExtractAt(idx)
    }
}

// Process sorts the mining ring by first-observation timestamp, sweeps each
// entry forward against its temporal neighbours within lookahead_range, and
// emits (source, associations) for every entry. Clears the mining ring
// afterward. Grounded on DBSP::RecordTable::Process.
func (t *recordTable) Process(params Params, emit func(source dbsptypes.Request, associations []dbsptypes.Request)) {
    entries := t.mining.Values()
    sort.Slice(entries, func(i, j int) bool {
        return entries[i].firstStamp() < entries[j].firstStamp()
    })

    for i := range entries {
        r := entries[i]
        assoc := ring.New[dbsptypes.Request](int(params.PfListSize), dbsptypes.Request.Key)

        first := true
        for j := i + 1; j < len(entries); j++ {
            n := entries[j]
            if n.firstStamp()-r.firstStamp() > int64(params.LookaheadRange) {
                break
            }
            minDelta, _, ok := association(r, n, params.LookaheadRange, params.Confidence)
            if !ok {
                continue
            }
            add := first || minDelta == 1
            first = false
            if add {
                assoc.Push(n.Request)
            }
        }

        emit(r.Request, assoc.Values())
    }

    t.mining.Clear()
}

// association computes (min_delta, max_delta) for a pair of TimestampedEntry
// observations, or ok=false if the pair fails the support/confidence test.
// Grounded on original_source/impl/src/dbsp.cpp's Entry<T>::Association.
func association(a, b timestampedEntry, lookahead, confidence uint64) (minDelta, maxDelta int64, ok bool) {
    diff := int64(a.Count()) - int64(b.Count())
    if absInt64(diff) > int64(confidence) {
        return 0, 0, false
    }

    n := a.Count()
    if b.Count() < n {
        n = b.Count()
    }
    if n < 1 {
        panic("predictor: association requires at least one observation per entry")
    }

    minDelta = math.MaxInt64
    maxDelta = math.MinInt64
    var errCount uint64
    for i := 1; i < n; i++ {
        delta := absInt64(a.Times[i] - b.Times[i])
        if uint64(delta) > lookahead {
            errCount++
        }
        if errCount > confidence {
            return 0, 0, false
        }
        if delta < minDelta {
            minDelta = delta
        }
        if delta > maxDelta {
            maxDelta = delta
        }
    }
    return minDelta, maxDelta, true
}

func absInt64(x int64) int64 {
    if x < 0 {
        return -x
    }
    return x
}
