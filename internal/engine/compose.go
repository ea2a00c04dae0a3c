package engine

import (
	"log/slog"

	"github.com/roach88/modelq/internal/ir"
	"github.com/roach88/modelq/internal/queryir"
)

// Compose joins two predicates according to spec.Composition.
//
// Rules, in order:
//   - p2 nil: p1 unchanged (nil p1 too means "no filter")
//   - p1 nil: p2 unchanged
//   - no composition: p1 alone, and a MISSING_COMPOSITION warning is logged
//   - "and": both must accept
//   - "or": either must accept
//   - anything else: UNSUPPORTED_COMPOSITION
//
// A nil logger falls back to slog.Default().
func Compose(spec *queryir.ConditionSpec, p1, p2 Predicate, logger *slog.Logger) (Predicate, error) {
	if p2 == nil {
		return p1, nil
	}
	if p1 == nil {
		return p2, nil
	}

	var op queryir.Composition
	if spec != nil {
		op = spec.Composition
	}

	switch op {
	case queryir.NoComposition:
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("no condition composition found, applying condition1 only",
			"code", ErrCodeMissingComposition,
		)
		return p1, nil
	case queryir.And:
		return and(p1, p2), nil
	case queryir.Or:
		return or(p1, p2), nil
	default:
		return nil, NewUnsupportedCompositionError(op)
	}
}

// and rejects as soon as either side rejects; Skip wins over Accept.
func and(p1, p2 Predicate) Predicate {
	return func(n *ir.Node) Verdict {
		v1 := p1(n)
		if v1 == Reject {
			return Reject
		}
		v2 := p2(n)
		switch {
		case v2 == Reject:
			return Reject
		case v1 == Accept && v2 == Accept:
			return Accept
		default:
			return Skip
		}
	}
}

// or accepts as soon as either side accepts; Skip wins over Reject.
func or(p1, p2 Predicate) Predicate {
	return func(n *ir.Node) Verdict {
		v1 := p1(n)
		if v1 == Accept {
			return Accept
		}
		v2 := p2(n)
		switch {
		case v2 == Accept:
			return Accept
		case v1 == Skip || v2 == Skip:
			return Skip
		default:
			return Reject
		}
	}
}
