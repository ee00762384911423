package model

import "fmt"

// 排序字段
const (
	SortByUserName  = "user_name"
	SortByEmail     = "email"
	SortByCreatedAt = "created_at"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// 分页默认值
const (
	DefaultPage     = 1
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// 字段长度限制
const (
	MaxUserNameLength = 50
	MaxEmailLength    = 254
	MaxHomePageLength = 2048
	MaxTextLength     = 8192
)

// 附件类型
const (
	AttachmentKindImage = "image"
	AttachmentKindText  = "text"
)

// 搜索索引
const (
	SearchIndexName = "comments"
)

// 列表缓存键前缀
const ListCacheKeyPrefix = "comments:page:"

// ListCacheKey 构造列表缓存键
// 键形状固定为 comments:page:<页码>:size:<页大小>:sort:<字段>:<方向>，
// 需要与已有缓存数据保持互通，不能改动
func ListCacheKey(page, pageSize int, sortBy, sortOrder string) string {
	return fmt.Sprintf("comments:page:%d:size:%d:sort:%s:%s", page, pageSize, sortBy, sortOrder)
}
