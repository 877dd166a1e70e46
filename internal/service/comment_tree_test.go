package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

func threadComment(id string, parent string) models.FollowUpComment {
	c := models.FollowUpComment{ID: id, FollowUpID: "fu-1", Comment: "text " + id, CreatedAt: time.Now()}
	if parent != "" {
		p := parent
		c.ParentCommentID = &p
	}
	return c
}

func idsOf(nodes []*models.CommentNode) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestBuildCommentTreeNestsRepliesInInputOrder(t *testing.T) {
	input := []models.FollowUpComment{
		threadComment("a", ""),
		threadComment("b", "a"),
		threadComment("c", ""),
		threadComment("d", "a"),
		threadComment("e", "c"),
	}

	roots := BuildCommentTree(input)
	require.Equal(t, []string{"a", "c"}, idsOf(roots))
	assert.Equal(t, []string{"b", "d"}, idsOf(roots[0].Replies))
	assert.Equal(t, []string{"e"}, idsOf(roots[1].Replies))
	assert.Equal(t, len(input), countCommentNodes(roots))
}

func TestBuildCommentTreeReplyBeforeParent(t *testing.T) {
	roots := BuildCommentTree([]models.FollowUpComment{threadComment("b", "a"), threadComment("a", "")})
	require.Equal(t, []string{"a"}, idsOf(roots))
	assert.Equal(t, []string{"b"}, idsOf(roots[0].Replies))
}

func TestBuildCommentTreeOrphanBecomesRoot(t *testing.T) {
	roots := BuildCommentTree([]models.FollowUpComment{
		threadComment("a", ""),
		threadComment("orphan", "deleted-parent"),
	})
	assert.Equal(t, []string{"a", "orphan"}, idsOf(roots))
	assert.Equal(t, 2, countCommentNodes(roots))
}

func TestBuildCommentTreeCyclesStayVisible(t *testing.T) {
	roots := BuildCommentTree([]models.FollowUpComment{
		threadComment("self", "self"),
		threadComment("x", "y"),
		threadComment("y", "x"),
	})
	assert.Equal(t, []string{"self", "x", "y"}, idsOf(roots))
	assert.Equal(t, 3, countCommentNodes(roots))
}

func TestBuildCommentTreeEmpty(t *testing.T) {
	roots := BuildCommentTree(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestBuildCommentTreeDeepChain(t *testing.T) {
	roots := BuildCommentTree([]models.FollowUpComment{threadComment("a", ""), threadComment("b", "a"), threadComment("c", "b")})
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, []string{"c"}, idsOf(roots[0].Replies[0].Replies))
}

func countCommentNodes(nodes []*models.CommentNode) int {
	total := 0
	for _, node := range nodes {
		total += 1 + countCommentNodes(node.Replies)
	}
	return total
}
