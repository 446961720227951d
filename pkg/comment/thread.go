package comment

// DefaultMaxDepth is the reply depth shown by clients. Storage does not
// limit depth.
const DefaultMaxDepth = 5

// Node is a comment with its nested replies.
type Node struct {
	*Comment
	Depth         int     `json:"depth"`
	Replies       []*Node `json:"replies"`
	HiddenReplies int     `json:"hiddenReplies,omitempty"`

	parent *Node
}

// Build turns the flat comments of a post into a reply forest. Siblings
// keep their order from the input. A comment whose parent is not in the
// list becomes a root.
func Build(comments []*Comment) []*Node {
	nodes := make(map[CommentId]*Node, len(comments))
	order := make([]*Node, 0, len(comments))
	for _, c := range comments {
		if _, dup := nodes[c.Id]; dup {
			continue
		}
		n := &Node{Comment: c, Replies: []*Node{}}
		nodes[c.Id] = n
		order = append(order, n)
	}

	roots := []*Node{}
	for _, n := range order {
		parent, ok := nodes[n.ParentId]
		if n.ParentId == "" || !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		parent.Replies = append(parent.Replies, n)
		n.parent = parent
	}

	seen := make(map[*Node]bool, len(order))
	for _, r := range roots {
		mark(r, seen)
	}
	// Whatever is left hangs off a parent cycle. Cut each cycle at its
	// first comment in input order.
	for _, n := range order {
		if seen[n] {
			continue
		}
		n.detach()
		roots = append(roots, n)
		mark(n, seen)
	}
	return roots
}

// mark sets depths below root and records the nodes as reachable.
func mark(root *Node, seen map[*Node]bool) {
	root.Depth = 0
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen[n] = true
		for _, r := range n.Replies {
			if seen[r] {
				continue
			}
			r.Depth = n.Depth + 1
			stack = append(stack, r)
		}
	}
}

func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, r := range p.Replies {
		if r == n {
			p.Replies = append(p.Replies[:i:i], p.Replies[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Prune returns a copy of the forest without nodes at maxDepth or deeper.
// Their parents count them in HiddenReplies. maxDepth < 1 keeps all.
func Prune(nodes []*Node, maxDepth int) []*Node {
	if maxDepth < 1 {
		return nodes
	}
	res := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Depth >= maxDepth {
			continue
		}
		c := &Node{Comment: n.Comment, Depth: n.Depth, Replies: []*Node{}}
		if n.Depth+1 >= maxDepth {
			c.HiddenReplies = Count(n.Replies)
		} else {
			c.Replies = Prune(n.Replies, maxDepth)
		}
		res = append(res, c)
	}
	return res
}

// Count returns the number of nodes in the forest.
func Count(nodes []*Node) int {
	total := 0
	stack := append([]*Node{}, nodes...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		total++
		stack = append(stack, n.Replies...)
	}
	return total
}
