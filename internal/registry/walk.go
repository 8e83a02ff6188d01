package registry

// PostOrderWalk visits every descendant of root post-order (children
// before their parent, root last), guarded by CyclicKilling so a cyclic
// parent-pointer graph cannot be walked twice or loop forever (P4). It is
// shared by internal/enforcer's kill rounds (C8), which need children
// signalled before their parents so a parent does not out-live the
// descendants it might otherwise reparent.
func (r *Registry) PostOrderWalk(root *Entry, visit func(*Entry)) int {
	if root.CyclicKilling {
		return 0
	}

	visited := 0
	root.CyclicKilling = true
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		visited += r.PostOrderWalk(child, visit)
	}
	root.CyclicKilling = false

	visit(root)
	return visited + 1
}

// Lookup returns the entry for pid if one has ever been registered,
// without creating a new entry on miss (unlike FindProcess).
func (r *Registry) Lookup(pid int) (*Entry, bool) {
	pos := probe(r.table, pid)
	e := r.table[pos]
	if e == nil {
		return nil, false
	}
	return e, true
}
