package converter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comments-service/internal/model"
)

func comment(id, parentID, rootID int64, createdAt time.Time) *model.Comment {
	return &model.Comment{
		ID:        id,
		UserName:  "user",
		Email:     "user@example.com",
		Text:      "text",
		ParentID:  parentID,
		RootID:    rootID,
		CreatedAt: createdAt,
	}
}

func TestBuildTreeNestsRepliesUnderParents(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	root := comment(1, 0, 0, base)
	c2 := comment(2, 1, 1, base.Add(time.Minute))
	c3 := comment(3, 2, 1, base.Add(2*time.Minute))
	c4 := comment(4, 1, 1, base.Add(3*time.Minute))

	tree := BuildTree(root, []*model.Comment{c4, c3, c2})

	require.Len(t, tree.Replies, 2)
	assert.Equal(t, int64(2), tree.Replies[0].ID)
	assert.Equal(t, int64(4), tree.Replies[1].ID)

	require.Len(t, tree.Replies[0].Replies, 1)
	assert.Equal(t, int64(3), tree.Replies[0].Replies[0].ID)
	assert.Empty(t, tree.Replies[0].Replies[0].Replies)
}

func TestBuildTreeSortsSiblingsByCreationThenID(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	root := comment(1, 0, 0, base)
	later := comment(5, 1, 1, base.Add(time.Hour))
	earlier := comment(9, 1, 1, base.Add(time.Minute))
	sameTimeHighID := comment(8, 1, 1, base.Add(time.Minute))

	tree := BuildTree(root, []*model.Comment{later, earlier, sameTimeHighID})

	require.Len(t, tree.Replies, 3)
	assert.Equal(t, int64(8), tree.Replies[0].ID)
	assert.Equal(t, int64(9), tree.Replies[1].ID)
	assert.Equal(t, int64(5), tree.Replies[2].ID)
}

func TestBuildTreeDropsOrphans(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	root := comment(1, 0, 0, base)
	orphan := comment(2, 99, 1, base.Add(time.Minute))

	tree := BuildTree(root, []*model.Comment{orphan})
	assert.Empty(t, tree.Replies)
}

func TestCommentToDTOSerializesEmptyReplies(t *testing.T) {
	dto := CommentToDTO(comment(1, 0, 0, time.Now()))

	data, err := json.Marshal(dto)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"replies":[]`)
}

func TestAttachmentToDTOBuildsDownloadURL(t *testing.T) {
	dto := AttachmentToDTO(&model.Attachment{
		ID:             3,
		FileName:       "notes.txt",
		StoredFileName: "abc123.txt",
		ContentType:    "text/plain",
		Kind:           model.AttachmentKindText,
	})

	assert.Equal(t, "/api/v1/files/abc123.txt", dto.URL)
	assert.Equal(t, "notes.txt", dto.FileName)
}
