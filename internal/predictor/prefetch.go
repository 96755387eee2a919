package predictor

import (
    "github.com/ValikVad/dbsp/internal/ring"
    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

// Prediction is a source Request plus a bounded, deduplicated set of
// associated follow-up Requests. associations is a pointer so that copies of
// a *Prediction (there are none here — predictions are always referenced by
// pointer) and, more importantly, repeated Find/upsert lookups all observe
// and mutate the same association ring. Grounded on
// original_source/impl/src/dbsp.cpp's Prediction : Request.
type Prediction struct {
    dbsptypes.Request
    associations *ring.BoundedRingIndex[dbsptypes.Request]
}

// Associations returns the valid associated requests, oldest first.
func (p *Prediction) Associations() []dbsptypes.Request { return p.associations.Values() }

// prefetchTable maps a source Request to its Prediction. Grounded on
// original_source/impl/src/dbsp.cpp's DBSP::PrefetchTable.
type prefetchTable struct {
    predictions *ring.BoundedRingIndex[*Prediction]
    pfListSize  int
}

func newPrefetchTable(rows, pfListSize int) *prefetchTable {
    keyFn := func(p *Prediction) uint64 { return p.Key() }
    return &prefetchTable{
        predictions: ring.New[*Prediction](rows, keyFn),
        pfListSize:  pfListSize,
    }
}

// Find looks up the Prediction for a source request, if any.
func (t *prefetchTable) Find(source dbsptypes.Request) (*Prediction, bool) {
    return t.predictions.Find(source.Key())
}

// upsert returns the Prediction for source, creating one (with an empty
// association ring of capacity pf_list_size) if absent.
func (t *prefetchTable) upsert(source dbsptypes.Request) *Prediction {
    if p, ok := t.predictions.Find(source.Key()); ok {
        return p
    }
    p := &Prediction{
        Request:      source,
        associations: ring.New[dbsptypes.Request](t.pfListSize, dbsptypes.Request.Key),
    }
    stored, _, _ := t.predictions.Push(p)
    return stored
}

// Push upserts a Prediction keyed by source and appends associated to its
// bounded association set (dedup by address, oldest-evicted on overflow).
func (t *prefetchTable) Push(source, associated dbsptypes.Request) {
    p := t.upsert(source)
    p.associations.Push(associated)
}

// Append upserts a Prediction keyed by source and pushes every valid
// incoming association.
func (t *prefetchTable) Append(source dbsptypes.Request, associations []dbsptypes.Request) {
    p := t.upsert(source)
    for _, a := range associations {
        if a.Valid() {
            p.associations.Push(a)
        }
    }
}

// Merge drains other into t: every Prediction in other that has at least one
// association is upserted into t and its associations merged in, then other
// is cleared. Used to promote newly-mined predictions into the query table
// without losing existing ones (within capacity).
func (t *prefetchTable) Merge(other *prefetchTable) {
    other.predictions.ForEach(func(_ int, p *Prediction) bool {
        if p.associations.Len() > 0 {
            dst := t.upsert(p.Request)
            for _, a := range p.associations.Values() {
                dst.associations.Push(a)
            }
        }
        return true
    })
    other.predictions.Clear()
}

// Notify invokes callback(source, associations) once per Prediction
// currently held.
func (t *prefetchTable) Notify(callback func(source dbsptypes.Request, associations []dbsptypes.Request)) {
    t.predictions.ForEach(func(_ int, p *Prediction) bool {
        callback(p.Request, p.Associations())
        return true
    })
}
