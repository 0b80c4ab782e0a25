package arena

import (
	"container/heap"
	"math"
)

// maxSearchNodes caps how many cells one search may expand, so a
// walled-off goal cannot stall the tick.
const maxSearchNodes = 4096

type gridPos struct {
	x int
	y int
}

// findPath runs 4-way A* over the wall grid. The returned path starts
// at the start cell; nil means unreachable within the node budget.
func (w *World) findPath(start, goal gridPos) []gridPos {
	if w.Blocked(start.x, start.y) || w.Blocked(goal.x, goal.y) {
		return nil
	}
	if start == goal {
		return []gridPos{start}
	}

	open := &openSet{}
	heap.Init(open)

	cells := w.width * w.height
	cameFrom := make([]int, cells)
	for i := range cameFrom {
		cameFrom[i] = -1
	}
	gScore := make([]float64, cells)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}

	startIdx := start.y*w.width + start.x
	goalIdx := goal.y*w.width + goal.x
	gScore[startIdx] = 0
	heap.Push(open, &openItem{pos: start, f: manhattan(start, goal)})

	expanded := 0
	for open.Len() > 0 && expanded < maxSearchNodes {
		expanded++
		current := heap.Pop(open).(*openItem)
		cur := current.pos
		curIdx := cur.y*w.width + cur.x

		if curIdx == goalIdx {
			return w.reconstruct(cameFrom, startIdx, goalIdx)
		}

		for _, n := range w.neighbors(cur) {
			idx := n.y*w.width + n.x
			tentative := gScore[curIdx] + 1
			if tentative < gScore[idx] {
				cameFrom[idx] = curIdx
				gScore[idx] = tentative
				heap.Push(open, &openItem{pos: n, f: tentative + manhattan(n, goal)})
			}
		}
	}

	return nil
}

// nearestOpen walks outward rings from a blocked tile and returns the
// closest open one, for retargeting paths whose goal sits inside a
// wall.
func (w *World) nearestOpen(p gridPos, maxRing int) (gridPos, bool) {
	if !w.Blocked(p.x, p.y) {
		return p, true
	}
	for ring := 1; ring <= maxRing; ring++ {
		for dy := -ring; dy <= ring; dy++ {
			for dx := -ring; dx <= ring; dx++ {
				if max(abs(dx), abs(dy)) != ring {
					continue
				}
				c := gridPos{x: p.x + dx, y: p.y + dy}
				if !w.Blocked(c.x, c.y) {
					return c, true
				}
			}
		}
	}
	return gridPos{}, false
}

func (w *World) reconstruct(cameFrom []int, startIdx, goalIdx int) []gridPos {
	path := make([]gridPos, 0, 32)
	cur := goalIdx
	for cur != -1 {
		path = append(path, gridPos{x: cur % w.width, y: cur / w.width})
		if cur == startIdx {
			break
		}
		cur = cameFrom[cur]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (w *World) neighbors(p gridPos) []gridPos {
	out := make([]gridPos, 0, 4)
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		n := gridPos{x: p.x + d[0], y: p.y + d[1]}
		if !w.Blocked(n.x, n.y) {
			out = append(out, n)
		}
	}
	return out
}

func manhattan(a, b gridPos) float64 {
	return math.Abs(float64(a.x-b.x)) + math.Abs(float64(a.y-b.y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type openItem struct {
	pos gridPos
	f   float64
}

type openSet []*openItem

func (o openSet) Len() int           { return len(o) }
func (o openSet) Less(i, j int) bool { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any) {
	*o = append(*o, x.(*openItem))
}
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}
