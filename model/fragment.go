package model

import (
	"strconv"
	"strings"
)

// Fragments identify objects within a resource by containment steps from a
// root: "/" is the first root, "/2" the third, and each "//@feature.index"
// segment descends one containment feature positionally, as in
// "//@members.0" or "/1//@units.2//@members.0".

type fragmentStep struct {
	feature string
	index   int
}

// parseFragment splits a fragment into an optional root index and a
// sequence of containment steps. A root index of -1 means "unspecified":
// resolution tries each root in insertion order.
func parseFragment(s string) (rootIndex int, steps []fragmentStep, ok bool) {
	rootIndex = -1
	if s == "" {
		return 0, nil, false
	}
	if s == "/" {
		return 0, nil, true
	}
	if !strings.HasPrefix(s, "//@") && strings.HasPrefix(s, "/") {
		head := s[1:]
		rest := ""
		if i := strings.Index(head, "//@"); i >= 0 {
			rest = head[i:]
			head = head[:i]
		}
		n, err := strconv.Atoi(head)
		if err != nil || n < 0 {
			return 0, nil, false
		}
		rootIndex = n
		s = rest
		if s == "" {
			return rootIndex, nil, true
		}
	}
	if !strings.HasPrefix(s, "//@") {
		return 0, nil, false
	}
	for _, seg := range strings.Split(s[len("//@"):], "//@") {
		dot := strings.LastIndex(seg, ".")
		if dot <= 0 || dot == len(seg)-1 {
			return 0, nil, false
		}
		idx, err := strconv.Atoi(seg[dot+1:])
		if err != nil || idx < 0 {
			return 0, nil, false
		}
		steps = append(steps, fragmentStep{feature: seg[:dot], index: idx})
	}
	return rootIndex, steps, true
}

// ResolveFragment walks a fragment path and returns the identified object,
// or false when any path segment is invalid. Paths without an explicit root
// index try each root in insertion order; the first full match wins.
func (r *Resource) ResolveFragment(fragment string) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rootIndex, steps, ok := parseFragment(fragment)
	if !ok {
		return "", false
	}
	var candidates []ID
	if rootIndex >= 0 {
		if rootIndex >= len(r.roots) {
			return "", false
		}
		candidates = []ID{r.roots[rootIndex]}
	} else {
		candidates = r.roots
	}
	for _, root := range candidates {
		if id, ok := r.walkSteps(root, steps); ok {
			return id, ok
		}
	}
	return "", false
}

func (r *Resource) walkSteps(from ID, steps []fragmentStep) (ID, bool) {
	cur := from
	for _, st := range steps {
		o, ok := r.objects[cur]
		if !ok {
			return "", false
		}
		next, ok := elementAt(o.Get(st.feature), st.index)
		if !ok {
			return "", false
		}
		cur = next
	}
	return cur, true
}

func elementAt(v Value, index int) (ID, bool) {
	if list, ok := v.AsList(); ok {
		if index >= len(list) {
			return "", false
		}
		return list[index].AsRef()
	}
	if index != 0 {
		return "", false
	}
	return v.AsRef()
}

// FragmentOf computes the containment path for an owned object, walking the
// incrementally maintained parent index up to a root. Objects registered
// but reachable from no root have no fragment.
func (r *Resource) FragmentOf(id ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var steps []fragmentStep
	cur := id
	for {
		edge, contained := r.parents[cur]
		if !contained {
			break
		}
		parent, ok := r.objects[edge.parent]
		if !ok {
			return "", false
		}
		idx, ok := positionIn(parent.Get(edge.feature), cur)
		if !ok {
			return "", false
		}
		steps = append(steps, fragmentStep{feature: edge.feature, index: idx})
		cur = edge.parent
	}

	rootIndex := -1
	for i, root := range r.roots {
		if root == cur {
			rootIndex = i
			break
		}
	}
	if rootIndex < 0 {
		return "", false
	}

	var b strings.Builder
	if rootIndex > 0 {
		b.WriteString("/")
		b.WriteString(strconv.Itoa(rootIndex))
	}
	for i := len(steps) - 1; i >= 0; i-- {
		b.WriteString("//@")
		b.WriteString(steps[i].feature)
		b.WriteString(".")
		b.WriteString(strconv.Itoa(steps[i].index))
	}
	if b.Len() == 0 {
		return "/", true
	}
	return b.String(), true
}

func positionIn(v Value, id ID) (int, bool) {
	if list, ok := v.AsList(); ok {
		for i, e := range list {
			if ref, isRef := e.AsRef(); isRef && ref == id {
				return i, true
			}
		}
		return 0, false
	}
	if ref, isRef := v.AsRef(); isRef && ref == id {
		return 0, true
	}
	return 0, false
}
