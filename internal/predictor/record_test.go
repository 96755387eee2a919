package predictor

import (
    "testing"

    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

func req(addr uint64) dbsptypes.Request {
    return dbsptypes.Request{StartAddr: addr, SizeBytes: 512, Op: dbsptypes.Read}
}

func mineAll(t *recordTable, params Params) map[uint64][]uint64 {
    out := make(map[uint64][]uint64)
    t.Process(params, func(source dbsptypes.Request, associations []dbsptypes.Request) {
        var addrs []uint64
        for _, a := range associations {
            addrs = append(addrs, a.StartAddr)
        }
        out[source.StartAddr] = addrs
    })
    return out
}

// Feeding [A, B, A, B, C] with min_support=2 promotes A then B into the
// mining ring on their second observation; mining them should find A
// associated with B only.
func TestRecordTableDiscoversAssociation(t *testing.T) {
    params := Params{
        LookaheadRange: 3,
        MaxSupport:     5,
        MinSupport:     2,
        Confidence:     0,
        PfListSize:     2,
    }
    rt := newRecordTable(20, 2)

    const A, B, C = 100, 200, 300
    rt.Insert(req(A), 1, params)
    rt.Insert(req(B), 2, params)
    rt.Insert(req(A), 3, params)
    rt.Insert(req(B), 4, params)
    rt.Insert(req(C), 5, params)

    if rt.Available() != 2 {
        t.Fatalf("Available() = %d, want 2 (A and B promoted)", rt.Available())
    }

    assoc := mineAll(rt, params)
    if got := assoc[A]; len(got) != 1 || got[0] != B {
        t.Fatalf("associations for A = %v, want [B]", got)
    }
    if got := assoc[B]; len(got) != 0 {
        t.Fatalf("associations for B = %v, want none", got)
    }
    if rt.Available() != 0 {
        t.Fatalf("mining ring should be cleared after Process, got %d", rt.Available())
    }
}

// With min_support set unreachably high, repeated observations of A never
// leave the recording ring via promotion; once the count exceeds
// max_support it is dropped outright, and never appears in the mining ring.
func TestRecordTableDropsEntryExceedingMaxSupport(t *testing.T) {
    params := Params{
        LookaheadRange: 3,
        MaxSupport:     3,
        MinSupport:     10,
        Confidence:     0,
        PfListSize:     2,
    }
    rt := newRecordTable(20, 20)

    const A, B, C, D = 100, 200, 300, 400
    rt.Insert(req(A), 1, params)
    rt.Insert(req(B), 2, params)
    rt.Insert(req(A), 3, params)
    rt.Insert(req(C), 4, params)
    rt.Insert(req(A), 5, params)
    rt.Insert(req(D), 6, params)
    rt.Insert(req(A), 7, params)

    if _, ok := rt.recording.Find(A); ok {
        t.Fatal("A should have been dropped from the recording ring after exceeding max_support")
    }
    if rt.Available() != 0 {
        t.Fatalf("A should never have reached the mining ring, Available() = %d", rt.Available())
    }
}

// min_support=1 promotes an entry into the mining ring on its very first
// observation.
func TestRecordTablePromotesImmediatelyAtMinSupportOne(t *testing.T) {
    params := Params{
        LookaheadRange: 3,
        MaxSupport:     5,
        MinSupport:     1,
        Confidence:     0,
        PfListSize:     2,
    }
    rt := newRecordTable(20, 20)

    rt.Insert(req(100), 1, params)

    if _, ok := rt.recording.Find(100); ok {
        t.Fatal("entry should have left the recording ring on its first observation")
    }
    if rt.Available() != 1 {
        t.Fatalf("Available() = %d, want 1", rt.Available())
    }
}

// confidence=0 rejects a pairing whose timestamp deltas exceed
// lookahead_range, even when observation counts match exactly.
func TestAssociationRejectsDeltaBeyondLookahead(t *testing.T) {
    a := timestampedEntry{Request: req(100), Times: []int64{1, 2}}
    b := timestampedEntry{Request: req(200), Times: []int64{1, 20}}

    if _, _, ok := association(a, b, 3, 0); ok {
        t.Fatal("association should reject a pair whose delta exceeds lookahead with zero confidence")
    }
}

// association rejects pairs whose observation counts differ by more than
// confidence allows.
func TestAssociationRejectsSupportMismatch(t *testing.T) {
    a := timestampedEntry{Request: req(100), Times: []int64{1, 2, 3}}
    b := timestampedEntry{Request: req(200), Times: []int64{1, 2}}

    if _, _, ok := association(a, b, 3, 0); ok {
        t.Fatal("association should reject a count mismatch exceeding confidence")
    }
    if _, _, ok := association(a, b, 3, 1); !ok {
        t.Fatal("association should accept a count mismatch within confidence")
    }
}

// The mining ring's capacity bounds entries per recordTable's mining_rows
// configuration; a PlainRing evicts the oldest (front) entry on overflow.
func TestRecordTableMiningRingEvictsOldestOnOverflow(t *testing.T) {
    params := Params{
        LookaheadRange: 3,
        MaxSupport:     5,
        MinSupport:     1,
        Confidence:     0,
        PfListSize:     2,
    }
    rt := newRecordTable(20, 2)

    rt.Insert(req(100), 1, params)
    rt.Insert(req(200), 2, params)
    rt.Insert(req(300), 3, params)

    if rt.Available() != 2 {
        t.Fatalf("Available() = %d, want 2 (ring capacity)", rt.Available())
    }

    assoc := mineAll(rt, params)
    if _, ok := assoc[100]; ok {
        t.Fatal("the oldest promoted entry (100) should have been evicted from the mining ring")
    }
}
