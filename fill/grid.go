package fill

// grid tracks background discovery for global fills.
type grid struct {
	w, h    int
	line    []bool
	visited []bool
	queue   []int
}

func newGrid(w, h int, line []bool) *grid {
	return &grid{w: w, h: h, line: line, visited: make([]bool, w*h)}
}

// flood marks, breadth first, the 4-connected non-line region containing
// (x, y) and returns 1. It returns 0 if (x, y) is a line pixel or already
// marked.
func (g *grid) flood(x, y int) int {
	if x < 0 || x >= g.w || y < 0 || y >= g.h {
		return 0
	}
	start := y*g.w + x
	if g.line[start] || g.visited[start] {
		return 0
	}

	g.visited[start] = true
	g.queue = append(g.queue[:0], start)
	for head := 0; head < len(g.queue); head++ {
		i := g.queue[head]
		px, py := i%g.w, i/g.w

		for _, d := range neighbors {
			nx, ny := px+d[0], py+d[1]
			if nx < 0 || nx >= g.w || ny < 0 || ny >= g.h {
				continue
			}
			j := ny*g.w + nx
			if g.line[j] || g.visited[j] {
				continue
			}
			g.visited[j] = true
			g.queue = append(g.queue, j)
		}
	}
	return 1
}
