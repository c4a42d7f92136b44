package tree

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// PlanCascade lists the documents removed by deleting rootID: every
// descendant in reverse discovery order, then rootID itself. Deleting in that
// order removes children before their parents, so an interrupted cascade
// leaves the remaining documents attached and the plan can be run again.
func PlanCascade(rootID string, index ParentIndex) []string {
	children := index.Children()

	visited := mapset.NewThreadUnsafeSet[string](rootID)
	discovered := make([]string, 0)
	queue := []string{rootID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, child := range children[id] {
			if visited.Add(child) {
				discovered = append(discovered, child)
				queue = append(queue, child)
			}
		}
	}

	plan := make([]string, 0, len(discovered)+1)
	for i := len(discovered) - 1; i >= 0; i-- {
		plan = append(plan, discovered[i])
	}

	return append(plan, rootID)
}
