package domain

// BFSPath searches a snapshot for any path from src to dst over enabled
// edges only, in deterministic (sorted-neighbor) order. It is the
// fallback §4.6/§4.9 invoke when the ACO solver's probabilistic search
// fails to reach dst. Returns (nil, false) if no such path exists.
func BFSPath(snap GraphSnapshot, src, dst int32) ([]int32, bool) {
	if src == dst {
		if _, ok := snap.Nodes[src]; ok {
			return []int32{src}, true
		}
		return nil, false
	}

	visited := map[int32]bool{src: true}
	parent := map[int32]int32{}
	queue := []int32{src}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range snap.Neighbors(u) {
			if visited[v] {
				continue
			}
			link, ok := snap.Link(u, v)
			if !ok || !link.Enabled {
				continue
			}
			visited[v] = true
			parent[v] = u
			if v == dst {
				return reconstructPath(parent, src, dst), true
			}
			queue = append(queue, v)
		}
	}
	return nil, false
}

func reconstructPath(parent map[int32]int32, src, dst int32) []int32 {
	path := []int32{dst}
	cur := dst
	for cur != src {
		cur = parent[cur]
		path = append(path, cur)
	}
	// reverse in place
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
