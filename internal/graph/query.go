package graph

// Graph queries over the link set. Traversals keep insertion order at every
// step so results are stable for a given store.

// adjacencyLocked indexes links by source and by target.
func (s *Store) adjacencyLocked() (outgoing, incoming map[string][]Link) {
	outgoing = make(map[string][]Link)
	incoming = make(map[string][]Link)
	for _, link := range s.links {
		outgoing[link.Source] = append(outgoing[link.Source], link)
		incoming[link.Target] = append(incoming[link.Target], link)
	}
	return outgoing, incoming
}

// Neighborhood returns the nodes within depth hops of start, following links
// in both directions, together with every link among those nodes. Nodes are
// paged with limit and offset (limit <= 0 means no limit); the start node is
// always part of the first page. Returns an empty document when start does
// not exist.
func (s *Store) Neighborhood(start string, depth, limit, offset int) Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := Document{Nodes: []Node{}, Links: []Link{}}
	if _, ok := s.nodes[start]; !ok {
		return doc
	}

	outgoing, incoming := s.adjacencyLocked()
	visited := map[string]bool{start: true}
	found := []string{start}
	frontier := []string{start}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string
		for _, id := range frontier {
			neighbors := make([]string, 0, len(outgoing[id])+len(incoming[id]))
			for _, link := range outgoing[id] {
				neighbors = append(neighbors, link.Target)
			}
			for _, link := range incoming[id] {
				neighbors = append(neighbors, link.Source)
			}
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				found = append(found, n)
				next = append(next, n)
			}
		}
		frontier = next
	}

	if offset > 0 {
		if offset >= len(found) {
			found = nil
		} else {
			found = found[offset:]
		}
	}
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	page := make(map[string]bool, len(found))
	for _, id := range found {
		page[id] = true
		doc.Nodes = append(doc.Nodes, *s.nodes[id])
	}
	for _, link := range s.links {
		if page[link.Source] && page[link.Target] {
			doc.Links = append(doc.Links, link)
		}
	}
	return doc
}

// Descendants returns every node reachable from id along outgoing links
// carrying predicate. An empty predicate follows every link.
func (s *Store) Descendants(id, predicate string) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outgoing, _ := s.adjacencyLocked()
	return s.transitiveLocked(id, func(n string) []string {
		var next []string
		for _, link := range outgoing[n] {
			if predicate == "" || link.Predicate == predicate {
				next = append(next, link.Target)
			}
		}
		return next
	})
}

// Ancestors returns every node from which id is reachable along links
// carrying predicate. An empty predicate follows every link.
func (s *Store) Ancestors(id, predicate string) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, incoming := s.adjacencyLocked()
	return s.transitiveLocked(id, func(n string) []string {
		var next []string
		for _, link := range incoming[n] {
			if predicate == "" || link.Predicate == predicate {
				next = append(next, link.Source)
			}
		}
		return next
	})
}

func (s *Store) transitiveLocked(id string, step func(string) []string) []Node {
	if _, ok := s.nodes[id]; !ok {
		return nil
	}

	visited := map[string]bool{id: true}
	queue := []string{id}
	var result []Node
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, n := range step(current) {
			if visited[n] {
				continue
			}
			visited[n] = true
			result = append(result, *s.nodes[n])
			queue = append(queue, n)
		}
	}
	return result
}

// FindPath returns the shortest chain of nodes connecting from and to,
// treating links as undirected. The result starts with from and ends with
// to; it is nil when either node is missing or no path exists.
func (s *Store) FindPath(from, to string) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[from]; !ok {
		return nil
	}
	if _, ok := s.nodes[to]; !ok {
		return nil
	}
	if from == to {
		return []Node{*s.nodes[from]}
	}

	outgoing, incoming := s.adjacencyLocked()
	parent := map[string]string{from: ""}
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbors := make([]string, 0, len(outgoing[current])+len(incoming[current]))
		for _, link := range outgoing[current] {
			neighbors = append(neighbors, link.Target)
		}
		for _, link := range incoming[current] {
			neighbors = append(neighbors, link.Source)
		}

		for _, n := range neighbors {
			if _, seen := parent[n]; seen {
				continue
			}
			parent[n] = current
			if n == to {
				return s.unwindPathLocked(parent, from, to)
			}
			queue = append(queue, n)
		}
	}
	return nil
}

func (s *Store) unwindPathLocked(parent map[string]string, from, to string) []Node {
	var reversed []Node
	for id := to; ; id = parent[id] {
		reversed = append(reversed, *s.nodes[id])
		if id == from {
			break
		}
	}
	path := make([]Node, len(reversed))
	for i, n := range reversed {
		path[len(reversed)-1-i] = n
	}
	return path
}
