package service

import (
	"sort"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
)

// HierarchyNode is one task in the display forest.
type HierarchyNode struct {
	ID       string           `json:"id"`
	Task     models.Task      `json:"task"`
	Depth    int              `json:"depth"`
	Children []*HierarchyNode `json:"children"`
}

// BuildHierarchy derives a display forest from the parent-link subset of the
// relationship list. Unlike the write-time DAG enforcement for depends_on and
// blocks, this builder tolerates bad edges: self-loops, edges touching tasks
// outside the set, second parents, and cycle-closing edges are all silently
// dropped. Every task appears exactly once in the output.
func BuildHierarchy(tasks []models.Task, relationships []models.Relationship, edgeType models.RelationshipType) []*HierarchyNode {
	if edgeType == "" {
		edgeType = models.ParentOfRelationship
	}

	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	// parent[child] = parent id; first accepted edge wins.
	parent := make(map[string]string)
	children := make(map[string][]string)
	for _, rel := range relationships {
		if rel.Type != edgeType {
			continue
		}
		if rel.FromID == rel.ToID {
			continue
		}
		if _, ok := byID[rel.FromID]; !ok {
			continue
		}
		if _, ok := byID[rel.ToID]; !ok {
			continue
		}
		if _, ok := parent[rel.ToID]; ok {
			continue
		}
		if closesCycle(parent, rel.FromID, rel.ToID) {
			continue
		}
		parent[rel.ToID] = rel.FromID
		children[rel.FromID] = append(children[rel.FromID], rel.ToID)
	}

	ordered := make([]models.Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].Title < ordered[j].Title
	})

	// Children attach in display order at every depth.
	rank := make(map[string]int, len(ordered))
	for i, t := range ordered {
		rank[t.ID] = i
	}
	for _, kids := range children {
		sort.Slice(kids, func(i, j int) bool { return rank[kids[i]] < rank[kids[j]] })
	}

	visited := make(map[string]bool, len(ordered))
	var build func(id string, depth int) *HierarchyNode
	build = func(id string, depth int) *HierarchyNode {
		visited[id] = true
		node := &HierarchyNode{
			ID:       id,
			Task:     byID[id],
			Depth:    depth,
			Children: []*HierarchyNode{},
		}
		for _, childID := range children[id] {
			if visited[childID] {
				continue
			}
			node.Children = append(node.Children, build(childID, depth+1))
		}
		return node
	}

	forest := []*HierarchyNode{}
	for _, t := range ordered {
		if _, hasParent := parent[t.ID]; hasParent {
			continue
		}
		forest = append(forest, build(t.ID, 0))
	}
	// A dropped cycle edge can leave a task parented but unreachable; surface
	// it as an extra root rather than losing it.
	for _, t := range ordered {
		if !visited[t.ID] {
			forest = append(forest, build(t.ID, 0))
		}
	}
	return forest
}

// closesCycle walks the accepted parent chain upward from candidate parent
// newParent; if child is encountered the edge would close a cycle.
func closesCycle(parent map[string]string, newParent, child string) bool {
	seen := map[string]struct{}{}
	for current := newParent; current != ""; {
		if current == child {
			return true
		}
		if _, ok := seen[current]; ok {
			return false
		}
		seen[current] = struct{}{}
		current = parent[current]
	}
	return false
}
