package predictor

// SizeUpdatePolicy controls how a re-observed request's SizeBytes is
// reconciled with the previously recorded value. Grounded on
// original_source/impl/src/dbsp.cpp's calc_size() and the
// RequestSizeUpdatePolicy enum in original_source/api/include/common.h.
type SizeUpdatePolicy uint8

const (
    ConstantByLimit SizeUpdatePolicy = iota
    ConstantFirstValue
    UpdateWithLatest
    UpdateWithLargest
    UpdateWithLargestWithLimit
    UpdateWithSmallest
)

// calcSize resolves (old, new, limit) per policy. Panics on an unrecognized
// policy: the original treats this as a programming bug (assert(!"Unknown
// 'RequestSizeUpdatePolicy'")), not a recoverable error.
func calcSize(oldSize, newSize, limit uint64, policy SizeUpdatePolicy) uint64 {
    switch policy {
    case ConstantByLimit:
        return limit
    case ConstantFirstValue:
        return oldSize
    case UpdateWithLatest:
        return newSize
    case UpdateWithLargest:
        return max64(oldSize, newSize)
    case UpdateWithLargestWithLimit:
        return min64(max64(oldSize, newSize), limit)
    case UpdateWithSmallest:
        return min64(oldSize, newSize)
    default:
        panic("predictor: unknown RequestSizeUpdatePolicy")
    }
}

func max64(a, b uint64) uint64 {
    if a > b {
        return a
    }
    return b
}

func min64(a, b uint64) uint64 {
    if a < b {
        return a
    }
    return b
}
