package physics

import (
	"sort"

	"github.com/jakecoffman/cp"

	"github.com/sugarlabs/Bridge/geom"
)

const queryRadius = 0.001

type hit struct {
	id   BodyID
	dist float64
	seq  uint64
}

// QueryBodiesAt returns the bodies whose shapes contain the screen point,
// nearest first. Deeper containment counts as nearer; ties go to the most
// recently created body.
func (w *World) QueryBodiesAt(at geom.Point, includeStatic bool) []BodyID {
	p := w.ScreenToWorld(at)
	best := map[BodyID]float64{}
	w.space.BBQuery(cp.NewBBForCircle(p, queryRadius), cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, _ interface{}) {
		id, ok := shape.Body().UserData.(BodyID)
		if !ok {
			return
		}
		info := shape.PointQuery(p)
		if info.Distance > 0 {
			return
		}
		if d, seen := best[id]; !seen || info.Distance < d {
			best[id] = info.Distance
		}
	}, nil)

	hits := make([]hit, 0, len(best))
	for id, d := range best {
		s := w.slot(id)
		if s == nil {
			continue
		}
		if s.kind == Static && !includeStatic {
			continue
		}
		hits = append(hits, hit{id: id, dist: d, seq: s.seq})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].seq > hits[j].seq
	})

	out := make([]BodyID, len(hits))
	for i, h := range hits {
		out[i] = h.id
	}
	return out
}

// TopDynamicAt is the nearest dynamic body under the point.
func (w *World) TopDynamicAt(at geom.Point) (BodyID, bool) {
	ids := w.QueryBodiesAt(at, false)
	if len(ids) == 0 {
		return BodyID{}, false
	}
	return ids[0], true
}

func sortBySeq(w *World, ids []BodyID) {
	sort.Slice(ids, func(i, j int) bool {
		return w.bodies[ids[i].Index].seq < w.bodies[ids[j].Index].seq
	})
}
