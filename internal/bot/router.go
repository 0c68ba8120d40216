package bot

import (
	"sort"
	"strings"
	"sync"

	"github.com/wolfman30/botlink/internal/platform"
)

// Event is the value delivered to subscribers. Name is the concrete emitted
// event name, so wildcard subscribers can see what actually fired. Exactly one
// of Message, Activity or Err is populated depending on the event class.
type Event struct {
	Name     string
	Payload  *platform.Payload
	Message  *platform.Message
	Activity map[string]any
	Actions  *Actions
	Captured bool
	Err      error
}

// Handler reacts to a dispatched event.
type Handler func(ev *Event)

// Wildcard matches exactly one segment of a dot-separated event name.
const Wildcard = "*"

type subscription struct {
	id      int64
	once    bool
	handler Handler
}

type trieNode struct {
	children map[string]*trieNode
	subs     []*subscription
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// emitter is a hierarchical event bus keyed on dot-separated segments.
// Subscription names may use "*" for any single segment. Handlers fire in
// global registration order regardless of which pattern matched.
type emitter struct {
	mu     sync.RWMutex
	root   *trieNode
	nextID int64
}

func newEmitter() *emitter {
	return &emitter{root: newTrieNode()}
}

func (e *emitter) on(name string, once bool, handler Handler) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	node := e.root
	for _, seg := range strings.Split(name, ".") {
		child, ok := node.children[seg]
		if !ok {
			child = newTrieNode()
			node.children[seg] = child
		}
		node = child
	}
	e.nextID++
	node.subs = append(node.subs, &subscription{id: e.nextID, once: once, handler: handler})
	return e.nextID
}

// off removes a subscription by id. Removal affects only future emissions.
func (e *emitter) off(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	removeSub(e.root, id)
}

func removeSub(node *trieNode, id int64) bool {
	for i, sub := range node.subs {
		if sub.id == id {
			node.subs = append(node.subs[:i], node.subs[i+1:]...)
			return true
		}
	}
	for _, child := range node.children {
		if removeSub(child, id) {
			return true
		}
	}
	return false
}

// emit fires every subscription whose pattern matches ev.Name. Matching
// subscriptions are collected under the read lock, sorted by registration
// order, then invoked without the lock so handlers may subscribe/unsubscribe
// freely.
func (e *emitter) emit(ev *Event) {
	segments := strings.Split(ev.Name, ".")

	e.mu.RLock()
	var matched []*subscription
	collect(e.root, segments, &matched)
	e.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].id < matched[j].id })

	for _, sub := range matched {
		if sub.once {
			e.off(sub.id)
		}
		sub.handler(ev)
	}
}

func collect(node *trieNode, segments []string, out *[]*subscription) {
	if len(segments) == 0 {
		*out = append(*out, node.subs...)
		return
	}
	if child, ok := node.children[segments[0]]; ok {
		collect(child, segments[1:], out)
	}
	if child, ok := node.children[Wildcard]; ok {
		collect(child, segments[1:], out)
	}
}
