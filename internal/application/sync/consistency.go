package sync

import (
	"time"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// Strategy names how a field-level conflict is resolved.
type Strategy string

const (
	// StrategyMerge unions both values (form-response bundles).
	StrategyMerge Strategy = "merge"
	// StrategyPreferComplete keeps the longer or non-empty value.
	StrategyPreferComplete Strategy = "prefer_complete"
	// StrategyPreferLatest keeps the value from the more recently
	// updated session.
	StrategyPreferLatest Strategy = "prefer_latest"
)

// FieldConflict reports one critical field whose values diverge between
// two session copies, with the resolution applied.
type FieldConflict struct {
	Field    string   `json:"field"`
	Strategy Strategy `json:"strategy"`
	ValueA   any      `json:"valueA"`
	ValueB   any      `json:"valueB"`
	Resolved any      `json:"resolved"`
}

// criticalFields are the fields whose divergence is worth reporting.
var criticalFields = []string{
	"language",
	"intent",
	"currency",
	"paymentMethod",
	"firstName",
	"lastName",
	"nationalId",
	"employerName",
	"selectedCategory",
	"selectedBusiness",
	"formResponses",
}

func strategyFor(field string) Strategy {
	switch field {
	case "formResponses":
		return StrategyMerge
	case "firstName", "lastName", "employerName":
		return StrategyPreferComplete
	default:
		return StrategyPreferLatest
	}
}

// ValidateDataConsistency classifies conflicts on the critical fields
// between two form-data documents. Nested documents compare deep-equal.
// prefer_latest resolves by the actual update times of the two sides,
// not by argument position.
func ValidateDataConsistency(a, b session.Document, aUpdated, bUpdated time.Time) []FieldConflict {
	var conflicts []FieldConflict
	for _, field := range criticalFields {
		va, okA := a[field]
		vb, okB := b[field]
		if !okA || !okB {
			continue
		}
		if session.DeepEqual(va, vb) {
			continue
		}
		strategy := strategyFor(field)
		conflicts = append(conflicts, FieldConflict{
			Field:    field,
			Strategy: strategy,
			ValueA:   va,
			ValueB:   vb,
			Resolved: resolve(strategy, va, vb, aUpdated, bUpdated),
		})
	}
	return conflicts
}

func resolve(strategy Strategy, va, vb any, aUpdated, bUpdated time.Time) any {
	switch strategy {
	case StrategyMerge:
		return mergeValues(va, vb)
	case StrategyPreferComplete:
		return preferComplete(va, vb)
	default:
		if bUpdated.After(aUpdated) {
			return vb
		}
		return va
	}
}

func mergeValues(va, vb any) any {
	ma, okA := asMap(va)
	mb, okB := asMap(vb)
	if okA && okB {
		out := ma.Clone()
		for k, v := range mb.Clone() {
			out[k] = v
		}
		return out
	}
	la, okA := va.([]any)
	lb, okB := vb.([]any)
	if okA && okB {
		out := make([]any, 0, len(la)+len(lb))
		out = append(out, la...)
		for _, e := range lb {
			dup := false
			for _, existing := range out {
				if session.DeepEqual(existing, e) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, e)
			}
		}
		return out
	}
	return vb
}

func preferComplete(va, vb any) any {
	if sa, ok := va.(string); ok {
		if sb, ok := vb.(string); ok {
			if len(sb) > len(sa) {
				return sb
			}
			return sa
		}
		if sa == "" {
			return vb
		}
		return va
	}
	if ma, ok := asMap(va); ok {
		if mb, ok := asMap(vb); ok {
			if mb.FieldCount() > ma.FieldCount() {
				return mb
			}
			return ma
		}
	}
	if va == nil {
		return vb
	}
	return va
}

func asMap(v any) (session.Document, bool) {
	switch t := v.(type) {
	case session.Document:
		return t, true
	case map[string]any:
		return session.Document(t), true
	}
	return nil, false
}
