package lock

import (
	"slices"
	"sort"

	"latchkey/pkg/primitives"

	"github.com/cockroachdb/errors"
	mapset "github.com/deckarep/golang-set"
	"github.com/rs/zerolog/log"
)

// DeadlockInfo is the detector's verdict. Rollbacks lists one victim per
// discovered cycle; rolling all of them back breaks every cycle in the
// wait-for graph. Pending and Acquired describe the locks that implicated
// each involved transaction: the lock it is waiting for, and the held
// locks other involved transactions are blocked on.
type DeadlockInfo struct {
	Rollbacks []primitives.TransactionID
	Pending   map[primitives.TransactionID]LockTarget
	Acquired  map[primitives.TransactionID][]LockTarget
}

// waitNode is one pending transaction in the wait-for graph. previous and
// next carry the DFS state of findCycle; both are reset at the start of
// every search.
type waitNode struct {
	info *transInfo
	ins  []*waitEdge
	outs []*waitEdge

	previous *waitNode
	next     int
	touched  bool
}

// waitEdge records that from's pending lock conflicts with locks to
// currently holds. toAcquired indexes into to.info.acquired: every held
// lock that justifies the edge, so the verdict can name them.
type waitEdge struct {
	from       *waitNode
	to         *waitNode
	toAcquired []int
}

// buildWaitGraph creates one node per queued transaction and an edge
// (from, to) wherever to holds a lock on the object of from's pending
// request in a mode incompatible with it. A transaction can appear on
// both ends of an edge: waiting for an object it already holds is a
// self-deadlock and is detected like any other cycle.
func (m *Manager) buildWaitGraph() (nodes []*waitNode, incoming map[*waitNode][]*waitEdge) {
	m.pendings.Ascend(func(bucket *pendingBucket) bool {
		for _, trans := range bucket.transactions {
			nodes = append(nodes, &waitNode{info: m.transactions[trans]})
		}
		return true
	})

	incoming = make(map[*waitNode][]*waitEdge)
	for _, from := range nodes {
		pending := from.info.pendingLock
		if !pending.IsValid() {
			panic(errors.AssertionFailedf("lock: pending queue entry %s has no pending lock", from.info.trans))
		}

		for _, to := range nodes {
			var edge *waitEdge
			for i, acquired := range to.info.acquired {
				if pending.SameObject(acquired) && !lockCompatibility[pending.Access][acquired.Access] {
					if edge == nil {
						edge = &waitEdge{from: from, to: to}
					}
					if !slices.Contains(edge.toAcquired, i) {
						edge.toAcquired = append(edge.toAcquired, i)
					}
				}
			}

			if edge != nil {
				from.outs = append(from.outs, edge)
				to.ins = append(to.ins, edge)
				incoming[to] = append(incoming[to], edge)
			}
		}
	}
	return nodes, incoming
}

func removeEdge(edges *[]*waitEdge, edge *waitEdge) {
	if i := slices.Index(*edges, edge); i >= 0 {
		*edges = slices.Delete(*edges, i, i+1)
	}
}

// testReducible queues a node for removal if nobody waits on it or it
// waits on nobody; such a node cannot be part of any cycle.
func testReducible(affected *[]*waitNode, node *waitNode) bool {
	if len(node.ins)*len(node.outs) == 0 {
		if !slices.Contains(*affected, node) {
			*affected = append(*affected, node)
		}
		return true
	}
	return false
}

func reduceNode(nodes *[]*waitNode, node *waitNode, index *int) {
	position := slices.Index(*nodes, node)
	if position < 0 {
		panic(errors.AssertionFailedf("lock: wait-for graph corrupted during reduction"))
	}
	*nodes = slices.Delete(*nodes, position, position+1)
	if position < *index {
		*index--
	}
}

// reduceGraph repeatedly strips degree-zero nodes, unlinking their edges
// and re-testing the neighbors that lost one, until only nodes with both
// incoming and outgoing edges remain. A non-empty remainder necessarily
// contains a cycle.
func reduceGraph(nodes *[]*waitNode) {
	index := 0
	var affected []*waitNode
	for index < len(*nodes) {
		node := (*nodes)[index]
		index++
		if !testReducible(&affected, node) {
			continue
		}

		for len(affected) > 0 {
			node = affected[len(affected)-1]
			affected = affected[:len(affected)-1]
			reduceNode(nodes, node, &index)

			for _, in := range node.ins {
				removeEdge(&in.from.outs, in)
				testReducible(&affected, in.from)
			}
			for _, out := range node.outs {
				removeEdge(&out.to.ins, out)
				testReducible(&affected, out.to)
			}
		}
	}
}

// findCycle walks the reduced graph depth-first from its first node and
// returns the first node reached twice on the current path: the entry
// point of a cycle, whose previous chain walks the cycle backwards.
// Returns nil only for an empty graph.
func findCycle(nodes []*waitNode) *waitNode {
	if len(nodes) == 0 {
		return nil
	}
	for _, node := range nodes {
		node.previous = nil
		node.next = -1
		node.touched = false
	}

	current := nodes[0]
	for {
		if current == nil {
			panic(errors.AssertionFailedf("lock: reduced wait-for graph contains no cycle"))
		}
		current.touched = true
		current.next++
		if current.next < len(current.outs) {
			next := current.outs[current.next].to
			if next.next != -1 {
				next.previous = current
				return next
			} else if !next.touched {
				next.previous = current
				current = next
			}
		} else {
			previous := current.previous
			current.previous = nil
			current = previous
		}
	}
}

// saveCycle marks every node on the cycle through entry as involved.
func saveCycle(involved mapset.Set, entry *waitNode) {
	current := entry
	for {
		involved.Add(current)
		current = current.previous
		if current == entry {
			return
		}
	}
}

// chooseVictim removes the cycle's entry node from the graph along with
// all its edges, breaking that cycle.
func chooseVictim(nodes *[]*waitNode, entry *waitNode) *waitNode {
	for _, in := range entry.ins {
		removeEdge(&in.from.outs, in)
	}
	for _, out := range entry.outs {
		removeEdge(&out.to.ins, out)
	}
	if i := slices.Index(*nodes, entry); i >= 0 {
		*nodes = slices.Delete(*nodes, i, i+1)
	}
	return entry
}

// DetectDeadlock examines the current wait-for state and reports which
// transactions must be rolled back to resolve every deadlock. It is an
// advisory oracle: nothing is released or dequeued here. The caller
// consumes Rollbacks and issues Rollback calls itself.
func (m *Manager) DetectDeadlock() DeadlockInfo {
	m.latch.Lock()
	defer m.latch.Unlock()

	info := DeadlockInfo{
		Pending:  make(map[primitives.TransactionID]LockTarget),
		Acquired: make(map[primitives.TransactionID][]LockTarget),
	}

	allNodes, incoming := m.buildWaitGraph()
	nodes := slices.Clone(allNodes)
	involved := mapset.NewThreadUnsafeSet()

	for {
		reduceGraph(&nodes)
		entry := findCycle(nodes)
		if entry == nil {
			break
		}

		saveCycle(involved, entry)
		victim := chooseVictim(&nodes, entry)
		info.Rollbacks = append(info.Rollbacks, victim.info.trans)
		log.Debug().Stringer("txn", victim.info.trans).Msg("deadlock victim selected")
	}

	for _, node := range allNodes {
		if !involved.Contains(node) {
			continue
		}

		info.Pending[node.info.trans] = node.info.pendingLock

		var acquired []int
		for _, in := range incoming[node] {
			if !involved.Contains(in.from) {
				continue
			}
			for _, i := range in.toAcquired {
				if !slices.Contains(acquired, i) {
					acquired = append(acquired, i)
				}
			}
		}
		sort.Ints(acquired)

		for _, i := range acquired {
			info.Acquired[node.info.trans] = append(info.Acquired[node.info.trans], node.info.acquired[i])
		}
	}

	return info
}
