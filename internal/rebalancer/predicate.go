package rebalancer

// RangePredicate reports whether hash h falls within the key range moving
// from previousShard to targetShard: the half-open ring arc
// (startExclusive, endInclusive], wrapping past the ring's maximum when
// startExclusive >= endInclusive.
type RangePredicate struct {
	startExclusive int64
	endInclusive   int64
}

// NewRangePredicate builds the predicate for the arc between a target
// shard's ring predecessor (previousShard.HashKey, exclusive) and the
// target shard itself (targetShard.HashKey, inclusive).
func NewRangePredicate(startExclusive, endInclusive int64) RangePredicate {
	return RangePredicate{startExclusive: startExclusive, endInclusive: endInclusive}
}

// Contains reports whether h belongs to the migrating range.
func (p RangePredicate) Contains(h int64) bool {
	if p.startExclusive < p.endInclusive {
		return h > p.startExclusive && h <= p.endInclusive
	}
	return h > p.startExclusive || h <= p.endInclusive
}
