package callgraph

// FindCallChain walks the calledBy direction breadth-first from start and
// records a chain for every exported node reached over at least one hop
// within maxDepth. Chains are returned entry point first, start last. An
// unknown start or no reachable entry point yields an empty result, not an
// error.
func FindCallChain(g Graph, start string, maxDepth int) [][]string {
	if maxDepth <= 0 {
		maxDepth = 5
	}
	if _, ok := g[start]; !ok {
		return nil
	}

	var chains [][]string
	visited := map[string]bool{start: true}
	queue := [][]string{{start}}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		current := g[path[len(path)-1]]
		if current == nil {
			continue
		}

		if current.IsExported && len(path) > 1 {
			chains = append(chains, reversed(path))
		}
		if len(path) > maxDepth {
			continue
		}

		for _, caller := range current.CalledBy {
			if visited[caller] {
				continue
			}
			visited[caller] = true
			next := make([]string, len(path), len(path)+1)
			copy(next, path)
			queue = append(queue, append(next, caller))
		}
	}

	return chains
}

// RelatedFunctions returns up to maxRelated nodes reachable from start over
// either edge direction, in breadth-first order, excluding start itself.
func RelatedFunctions(g Graph, start string, maxRelated int) []string {
	if maxRelated <= 0 {
		maxRelated = 10
	}
	if _, ok := g[start]; !ok {
		return nil
	}

	var related []string
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 && len(related) < maxRelated {
		current := g[queue[0]]
		queue = queue[1:]
		if current == nil {
			continue
		}

		neighbors := make([]string, 0, len(current.Calls)+len(current.CalledBy))
		neighbors = append(neighbors, current.Calls...)
		neighbors = append(neighbors, current.CalledBy...)

		for _, name := range neighbors {
			if visited[name] {
				continue
			}
			visited[name] = true
			related = append(related, name)
			queue = append(queue, name)
			if len(related) >= maxRelated {
				break
			}
		}
	}

	return related
}

func reversed(path []string) []string {
	out := make([]string, len(path))
	for i, v := range path {
		out[len(path)-1-i] = v
	}
	return out
}
