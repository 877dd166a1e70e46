package service

import "github.com/noah-isme/consultancy-crm-api/internal/models"

// BuildCommentTree turns the flat comment list of one follow-up into a forest.
// Roots and replies keep the relative order of the input. A comment whose parent
// is missing from the list (deleted, or never existed) is placed at the root, as is
// any comment whose parent chain loops back to itself.
func BuildCommentTree(comments []models.FollowUpComment) []*models.CommentNode {
	nodes := make(map[string]*models.CommentNode, len(comments))
	parents := make(map[string]string, len(comments))
	for i := range comments {
		c := comments[i]
		nodes[c.ID] = &models.CommentNode{FollowUpComment: c, Replies: []*models.CommentNode{}}
		if c.ParentCommentID != nil {
			parents[c.ID] = *c.ParentCommentID
		}
	}

	roots := make([]*models.CommentNode, 0, len(comments))
	for i := range comments {
		node := nodes[comments[i].ID]
		parentID, hasParent := parents[node.ID]
		parent, known := nodes[parentID]
		if !hasParent || !known || loopsBack(node.ID, parents, len(comments)) {
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}
	return roots
}

// loopsBack walks the parent chain of id and reports whether it revisits id.
func loopsBack(id string, parents map[string]string, limit int) bool {
	current := id
	for step := 0; step <= limit; step++ {
		next, ok := parents[current]
		if !ok {
			return false
		}
		if next == id {
			return true
		}
		current = next
	}
	return true
}
