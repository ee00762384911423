package converter

import (
	"sort"

	"comments-service/internal/model"
)

// CommentToDTO 单条评论转视图，不带回复
func CommentToDTO(c *model.Comment) *model.CommentDTO {
	dto := &model.CommentDTO{
		ID:        c.ID,
		UserName:  c.UserName,
		Email:     c.Email,
		HomePage:  c.HomePage,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		Replies:   []*model.CommentDTO{},
	}
	if c.Attachment != nil {
		dto.Attachment = AttachmentToDTO(c.Attachment)
	}
	return dto
}

// AttachmentToDTO 附件转视图
func AttachmentToDTO(a *model.Attachment) *model.AttachmentDTO {
	return &model.AttachmentDTO{
		ID:          a.ID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Kind:        a.Kind,
		URL:         "/api/v1/files/" + a.StoredFileName,
	}
}

// CommentsToDTOs 批量转换，不组装回复
func CommentsToDTOs(comments []*model.Comment) []*model.CommentDTO {
	dtos := make([]*model.CommentDTO, 0, len(comments))
	for _, c := range comments {
		dtos = append(dtos, CommentToDTO(c))
	}
	return dtos
}

// BuildTree 从根评论和它的全部后代组装一棵回复树
// 纯函数：同层回复按创建时间升序，时间相同按ID升序，
// 父节点缺失的节点会被丢弃
func BuildTree(root *model.Comment, descendants []*model.Comment) *model.CommentDTO {
	children := make(map[int64][]*model.Comment, len(descendants))
	for _, c := range descendants {
		children[c.ParentID] = append(children[c.ParentID], c)
	}
	for _, group := range children {
		sortByCreation(group)
	}
	return buildNode(root, children)
}

func buildNode(c *model.Comment, children map[int64][]*model.Comment) *model.CommentDTO {
	dto := CommentToDTO(c)
	for _, child := range children[c.ID] {
		dto.Replies = append(dto.Replies, buildNode(child, children))
	}
	return dto
}

func sortByCreation(comments []*model.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}
