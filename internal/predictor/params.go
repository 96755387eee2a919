package predictor

import "fmt"

// TimestampType names the source configuration's timestamp-generation
// variant. Only DoubleCounter has defined behavior here (see spec §9);
// DoubleTime is accepted but reserved for forward compatibility.
type TimestampType uint8

const (
    DoubleCounter TimestampType = iota
    DoubleTime
)

// MetricsVariant names the source configuration's association-accounting
// variant. Only OriginalPaperMetrics has defined behavior; ModuleMetrics is
// reserved.
type MetricsVariant uint8

const (
    OriginalPaperMetrics MetricsVariant = iota
    ModuleMetrics
)

// Algo names the predictor algorithm family. This module implements Mithril
// only; the field exists for API compatibility with the source's
// PredictorAlgo enum.
type Algo uint8

const (
    Mithril Algo = iota
)

// Params is the full recognized predictor configuration, matching
// original_source/api/include/ipredictor.h's PredictorParams.
type Params struct {
    LookaheadRange uint64
    MaxSupport     uint64
    MinSupport     uint64
    Confidence     uint64
    PfListSize     uint64

    MiningTableNumRows    int
    PrefetchTableNumRows  int
    RecordTableNumRows    int

    ReqSizeUpdatePolicy     SizeUpdatePolicy
    LimitSizeForSizePolicy  uint64

    // ThreadCount selects single-threaded (0) or threaded (1) mining.
    // Any other value is clamped to 1 by applyOptions, matching the
    // original's "others clamped to 1 with warning".
    ThreadCount int

    // Reserved fields: accepted for API compatibility, not consumed by the
    // implemented predictor path.
    TSType                   TimestampType
    AssociationsMetricsType  MetricsVariant
    IsPriorityQueue          bool
    DFS                      bool
    AlgoKind                 Algo
}

// Defaults returns the OriginalPaperCase preset from
// original_source/utils/predictor_utils/include/pred_utils.h.
func Defaults() Params {
    return Params{
        LookaheadRange:          20,
        MaxSupport:              8,
        MinSupport:              2,
        Confidence:              0,
        PfListSize:              2,
        MiningTableNumRows:      2560,
        PrefetchTableNumRows:    30000,
        RecordTableNumRows:      20000,
        ReqSizeUpdatePolicy:     UpdateWithLargest,
        LimitSizeForSizePolicy:  0,
        ThreadCount:             0,
        TSType:                  DoubleCounter,
        AssociationsMetricsType: OriginalPaperMetrics,
        IsPriorityQueue:         true,
        DFS:                     true,
        AlgoKind:                Mithril,
    }
}

// UnitTestDefaults returns the UnitTestCase preset, the small-table
// configuration the original test suite exercised its predictor with.
func UnitTestDefaults() Params {
    return Params{
        LookaheadRange:          3,
        MaxSupport:              5,
        MinSupport:              2,
        Confidence:              0,
        PfListSize:              2,
        MiningTableNumRows:      3,
        PrefetchTableNumRows:    1000,
        RecordTableNumRows:      2000,
        ReqSizeUpdatePolicy:     UpdateWithLargest,
        LimitSizeForSizePolicy:  512,
        ThreadCount:             0,
        TSType:                  DoubleCounter,
        AssociationsMetricsType: OriginalPaperMetrics,
    }
}

const (
    fixedMiningTableNumRows = 1771
    fixedPfListSizeForBudget = 2
)

// ParamsForBudget auto-sizes RecordTableNumRows/PrefetchTableNumRows from a
// total byte budget, holding MiningTableNumRows and PfListSize fixed, per
// original_source/impl/src/dbsp.cpp's DBSP::get_params. Returns ok=false if
// bytesTotal can't fund even the fixed-size mining table, mirroring the
// original's early-return-empty-struct behavior.
func ParamsForBudget(bytesTotal int64) (Params, bool) {
    const entrySize = 64 // approximate TimestampedEntry/Prediction footprint

    fixedCost := int64(fixedMiningTableNumRows) * entrySize
    if bytesTotal <= fixedCost {
        return Params{}, false
    }

    remaining := bytesTotal - fixedCost
    recordRows := remaining / (2 * entrySize)
    prefetchRows := remaining / (2 * entrySize)
    if recordRows < 1 || prefetchRows < 1 {
        return Params{}, false
    }

    p := Defaults()
    p.MiningTableNumRows = fixedMiningTableNumRows
    p.PfListSize = fixedPfListSizeForBudget
    p.RecordTableNumRows = int(recordRows)
    p.PrefetchTableNumRows = int(prefetchRows)
    return p, true
}

func (p Params) validate() error {
    if p.MinSupport == 0 {
        return fmt.Errorf("predictor: min_support must be >= 1")
    }
    if p.MaxSupport < p.MinSupport {
        return fmt.Errorf("predictor: max_support (%d) must be >= min_support (%d)", p.MaxSupport, p.MinSupport)
    }
    if p.PfListSize == 0 {
        return fmt.Errorf("predictor: pf_list_size must be >= 1")
    }
    if p.MiningTableNumRows <= 0 {
        return fmt.Errorf("predictor: mining_table_num_rows must be > 0")
    }
    if p.RecordTableNumRows <= 0 {
        return fmt.Errorf("predictor: record_table_num_rows must be > 0")
    }
    if p.PrefetchTableNumRows <= 0 {
        return fmt.Errorf("predictor: prefetch_table_num_rows must be > 0")
    }
    return nil
}
