// SPDX-License-Identifier: MPL-2.0

package dag

type color uint8

const (
	white color = iota // unvisited
	gray               // on the current DFS path
	black              // finished
)

// findCycle runs a depth-first search from every unvisited node in handle
// order and returns the first cycle met as an identity sequence, or nil.
func (g *Graph) findCycle() []string {
	colors := make([]color, len(g.pkgs))
	var path []int

	var visit func(u int) []int
	visit = func(u int) []int {
		colors[u] = gray
		path = append(path, u)
		for _, v := range g.deps[u] {
			switch colors[v] {
			case gray:
				for i, n := range path {
					if n == v {
						return append([]int(nil), path[i:]...)
					}
				}
			case white:
				if c := visit(v); c != nil {
					return c
				}
			}
		}
		path = path[:len(path)-1]
		colors[u] = black
		return nil
	}

	for u := range g.pkgs {
		if colors[u] != white {
			continue
		}
		if c := visit(u); c != nil {
			ids := make([]string, len(c))
			for i, h := range c {
				ids[i] = g.pkgs[h].ID()
			}
			return ids
		}
	}
	return nil
}
