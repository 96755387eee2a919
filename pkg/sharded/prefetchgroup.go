package sharded

import (
    "strconv"
    "strings"

    "golang.org/x/sync/singleflight"

    "github.com/ValikVad/dbsp/pkg/dbsptypes"
)

// prefetchGroup deduplicates concurrent Prefetch dispatches that target the
// same byte range: when several in-flight Reads predict the same follow-up
// address in the same instant, only one of them actually walks the shard
// partition and submits worker tasks; the rest share its result. Grounded
// on the teacher's pkg/loader.go GetOrLoad, which uses singleflight for the
// same reason (collapse duplicate concurrent loads of one key).
type prefetchGroup struct {
    group singleflight.Group
}

func prefetchKey(r dbsptypes.Request) string {
    var b strings.Builder
    b.WriteString(strconv.FormatUint(r.StartAddr, 10))
    b.WriteByte(':')
    b.WriteString(strconv.FormatUint(r.SizeBytes, 10))
    return b.String()
}

func (g *prefetchGroup) do(r dbsptypes.Request, fn func() []*Future) []*Future {
    v, _, _ := g.group.Do(prefetchKey(r), func() (any, error) {
        return fn(), nil
    })
    return v.([]*Future)
}
