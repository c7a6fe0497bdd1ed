// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

// MapGetter defines the getter method of the source map.
type MapGetter func(key any) (value any, exist bool, err error)

type journalEntry struct {
	key   any
	value any
}

type level struct {
	kvs     map[any]any
	journal []journalEntry
}

func newLevel() *level {
	return &level{kvs: make(map[any]any)}
}

// StackedMap maintains maps in a stack.
// Each map inherits key/value of the map at lower level.
// It acts as a map with save-restore/snapshot-revert manner.
type StackedMap struct {
	src       MapGetter
	stack     []*level
	revisions map[any][]int // per key, the stack of level indices that contain it
}

// New creates an instance of StackedMap. src acts as the source of data.
// The returned map carries one base level, so Put works right away.
func New(src MapGetter) *StackedMap {
	sm := &StackedMap{
		src:       src,
		revisions: make(map[any][]int),
	}
	sm.Push()
	return sm
}

// Depth returns the depth of the stack.
func (sm *StackedMap) Depth() int {
	return len(sm.stack)
}

// Push pushes a new map on the stack.
// It returns the stack depth before push.
func (sm *StackedMap) Push() int {
	sm.stack = append(sm.stack, newLevel())
	return len(sm.stack) - 1
}

// Pop pops the map at the top of the stack.
// It reverts all Put operations since the last Push.
func (sm *StackedMap) Pop() {
	top := sm.stack[len(sm.stack)-1]
	for key := range top.kvs {
		revs := sm.revisions[key]
		revs = revs[:len(revs)-1]
		if len(revs) == 0 {
			delete(sm.revisions, key)
		} else {
			sm.revisions[key] = revs
		}
	}
	sm.stack = sm.stack[:len(sm.stack)-1]
}

// PopTo pops maps until the stack depth reaches depth.
func (sm *StackedMap) PopTo(depth int) {
	for len(sm.stack) > depth {
		sm.Pop()
	}
}

// Get gets the value for the given key.
// The second return value indicates whether the given key is found.
func (sm *StackedMap) Get(key any) (any, bool, error) {
	if revs := sm.revisions[key]; len(revs) > 0 {
		if v, ok := sm.stack[revs[len(revs)-1]].kvs[key]; ok {
			return v, true, nil
		}
	}
	return sm.src(key)
}

// Put puts the key value into the map at the stack top.
// It panics if the stack is empty.
func (sm *StackedMap) Put(key, value any) {
	top := sm.stack[len(sm.stack)-1]
	top.kvs[key] = value
	top.journal = append(top.journal, journalEntry{key, value})

	// record key revision for fast access
	rev := len(sm.stack) - 1
	if revs := sm.revisions[key]; len(revs) == 0 || revs[len(revs)-1] != rev {
		sm.revisions[key] = append(revs, rev)
	}
}

// Journal traverses all Put operations in insertion order.
// Traversal aborts when cb returns false.
func (sm *StackedMap) Journal(cb func(key, value any) bool) {
	for _, lvl := range sm.stack {
		for _, e := range lvl.journal {
			if !cb(e.key, e.value) {
				return
			}
		}
	}
}
