package analysis

import (
	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

// FindVariableSource returns the chronological trail of assignment
// records for (object, ident) whose position precedes pos, walking
// backward through reassignments and variable-to-variable feeds, until a
// parameter seed (position (0,0)) or a call expression (a candidate
// source call) terminates the trail (spec §4.4.4). scope restricts which
// records are visible (nil means "no restriction"); used by taint
// detection to confine tracing to a single control-flow path.
func (a *Analysis) FindVariableSource(m *method.Method, object []string, ident string, pos int, scope []rules.Position) []method.VariableRecord {
	var trail []method.VariableRecord
	seen := map[string]bool{}

	curObject, curIdent, curPos := object, ident, pos
	for i := 0; i < 64; i++ { // bounded: finite variable graph, defends against cyclic feeds
		key := identifierKey(curObject, curIdent)
		if seen[key] {
			break
		}
		seen[key] = true

		candidates := visibleRecordsBefore(m.Variables[key], curPos, scope)
		if len(candidates) == 0 {
			break
		}
		latest := candidates[len(candidates)-1]
		trail = append([]method.VariableRecord{latest}, trail...)

		if latest.Position.Start == 0 && latest.Position.End == 0 {
			break // parameter seed
		}

		switch rhs := latest.Assignment.(type) {
		case rules.CallExpr:
			// A call expression terminates the trail; the caller decides
			// whether it matches a known Source.
			return trail
		case rules.VarExpr:
			if rhs.Name.IsZero() {
				return trail
			}
			curObject, curIdent, curPos = rhs.Name.Object, rhs.Name.Ident, latest.Position.Start
			continue
		default:
			return trail
		}
	}
	return trail
}

// visibleRecordsBefore filters records to those with Position.Start < pos
// and, when scope is non-nil, additionally contained in one of scope's
// segments. Parameter seeds (position (0,0)) are always kept, whatever
// pos and scope are. The result preserves the original (strictly
// textual) order.
func visibleRecordsBefore(records []method.VariableRecord, pos int, scope []rules.Position) []method.VariableRecord {
	var out []method.VariableRecord
	for _, r := range records {
		isSeed := r.Position.Start == 0 && r.Position.End == 0
		if r.Position.Start >= pos && !isSeed {
			continue
		}
		if scope != nil && !isSeed && !inSegments(r.Position, scope) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func inSegments(p rules.Position, segments []rules.Position) bool {
	for _, seg := range segments {
		if p.Start >= seg.Start && p.End <= seg.End {
			return true
		}
	}
	return false
}
