package service

import (
	"strings"

	"github.com/taskbase/taskbase/internal/route"
)

// namespaceSet is the owned, immutable list of authorized namespaces. Every
// lookup resolves to an index into names, so draining never copies strings.
type namespaceSet struct {
	names []string
	index map[string]int
}

func newNamespaceSet(requested []string) (namespaceSet, error) {
	set := namespaceSet{
		names: make([]string, 0, len(requested)),
		index: make(map[string]int, len(requested)),
	}

	for _, ns := range requested {
		if ns == "" {
			return namespaceSet{}, &NamespaceError{Namespace: ns, Reason: "must not be empty"}
		}
		if strings.Contains(ns, route.Separator) {
			return namespaceSet{}, &NamespaceError{Namespace: ns, Reason: "must not contain " + route.Separator}
		}
		if _, dup := set.index[ns]; dup {
			continue
		}
		set.index[ns] = len(set.names)
		set.names = append(set.names, ns)
	}

	if len(set.names) == 0 {
		return namespaceSet{}, ErrNoNamespaces
	}
	return set, nil
}

func (s namespaceSet) lookup(ns string) (int, bool) {
	i, ok := s.index[ns]
	return i, ok
}

func (s namespaceSet) contains(ns string) bool {
	_, ok := s.index[ns]
	return ok
}

func (s namespaceSet) topics() []string {
	topics := make([]string, len(s.names))
	for i, ns := range s.names {
		// names were validated against the separator above.
		topics[i] = route.MustBuild(route.TaskReady, ns)
	}
	return topics
}

// pendingSet collects namespace indices seen during one drain, in first-seen order.
type pendingSet struct {
	seen  []bool
	order []int
}

func newPendingSet(size int) *pendingSet {
	return &pendingSet{seen: make([]bool, size)}
}

func (p *pendingSet) add(i int) {
	if p.seen[i] {
		return
	}
	p.seen[i] = true
	p.order = append(p.order, i)
}

func (p *pendingSet) empty() bool {
	return len(p.order) == 0
}

func (p *pendingSet) resolve(set namespaceSet) []string {
	out := make([]string, len(p.order))
	for i, idx := range p.order {
		out[i] = set.names[idx]
	}
	return out
}
