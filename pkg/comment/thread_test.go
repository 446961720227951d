package comment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flat(pairs ...[2]string) []*Comment {
	res := make([]*Comment, 0, len(pairs))
	for _, p := range pairs {
		res = append(res, &Comment{Id: CommentId(p[0]), ParentId: CommentId(p[1])})
	}
	return res
}

func ids(nodes []*Node) []CommentId {
	res := []CommentId{}
	for _, n := range nodes {
		res = append(res, n.Id)
	}
	return res
}

func TestBuild(t *testing.T) {
	roots := Build(flat(
		[2]string{"1", ""},
		[2]string{"2", "1"},
		[2]string{"3", "1"},
		[2]string{"4", "2"},
		[2]string{"5", "99"},
	))

	require.Equal(t, []CommentId{"1", "5"}, ids(roots))
	one := roots[0]
	assert.Equal(t, []CommentId{"2", "3"}, ids(one.Replies))
	assert.Equal(t, []CommentId{"4"}, ids(one.Replies[0].Replies))
	assert.Empty(t, one.Replies[1].Replies)

	assert.Equal(t, 0, one.Depth)
	assert.Equal(t, 1, one.Replies[0].Depth)
	assert.Equal(t, 2, one.Replies[0].Replies[0].Depth)
	assert.Equal(t, 0, roots[1].Depth)
	assert.Equal(t, 5, Count(roots))
}

func TestBuildKeepsInputOrderRegardlessOfParentPosition(t *testing.T) {
	// Newest first: replies come before their parents.
	roots := Build(flat(
		[2]string{"c", "a"},
		[2]string{"b", "a"},
		[2]string{"a", ""},
	))
	require.Equal(t, []CommentId{"a"}, ids(roots))
	assert.Equal(t, []CommentId{"c", "b"}, ids(roots[0].Replies))
}

func TestBuildEmpty(t *testing.T) {
	roots := Build(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestBuildDeepThread(t *testing.T) {
	const depth = 10000
	comments := []*Comment{{Id: "0"}}
	for i := 1; i < depth; i++ {
		comments = append(comments, &Comment{Id: CommentId(fmt.Sprint(i)), ParentId: CommentId(fmt.Sprint(i - 1))})
	}

	roots := Build(comments)
	require.Len(t, roots, 1)
	assert.Equal(t, depth, Count(roots))

	n := roots[0]
	for len(n.Replies) > 0 {
		n = n.Replies[0]
	}
	assert.Equal(t, depth-1, n.Depth)
}

func TestBuildBreaksParentCycles(t *testing.T) {
	roots := Build(flat(
		[2]string{"self", "self"},
		[2]string{"a", "b"},
		[2]string{"b", "a"},
		[2]string{"c", "b"},
	))

	require.Equal(t, []CommentId{"self", "a"}, ids(roots))
	a := roots[1]
	assert.Equal(t, []CommentId{"b"}, ids(a.Replies))
	assert.Equal(t, []CommentId{"c"}, ids(a.Replies[0].Replies))
	assert.Equal(t, 4, Count(roots))
}

func TestBuildSkipsDuplicateIds(t *testing.T) {
	roots := Build(flat(
		[2]string{"1", ""},
		[2]string{"1", ""},
	))
	assert.Len(t, roots, 1)
}

func TestPrune(t *testing.T) {
	roots := Build(flat(
		[2]string{"1", ""},
		[2]string{"2", "1"},
		[2]string{"3", "2"},
		[2]string{"4", "3"},
		[2]string{"5", "3"},
	))

	pruned := Prune(roots, 2)
	require.Len(t, pruned, 1)
	require.Len(t, pruned[0].Replies, 1)
	two := pruned[0].Replies[0]
	assert.Empty(t, two.Replies)
	assert.Equal(t, 3, two.HiddenReplies)

	// The stored forest is untouched.
	assert.Equal(t, 5, Count(roots))
	assert.Equal(t, 5, Count(Prune(roots, 0)))
	assert.Equal(t, 5, Count(Prune(roots, DefaultMaxDepth)))
}
