package service

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// 允许的HTML标签，其余标签连同属性一并剥除
var allowedTags = map[string]bool{
	"a":      true,
	"code":   true,
	"i":      true,
	"strong": true,
}

var tagPattern = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9]*)(?:\s[^>]*)?(/?)\s*>`)

// Sanitizer 评论文本净化器
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer 创建净化器
// 只放行 a、code、i、strong，链接仅允许http/https并附加rel保护
func NewSanitizer() *Sanitizer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("code", "i", "strong")
	policy.AllowAttrs("href", "title").OnElements("a")
	policy.AllowURLSchemes("http", "https")
	policy.RequireNoFollowOnLinks(true)
	return &Sanitizer{policy: policy}
}

// Sanitize 剥除白名单之外的HTML
func (s *Sanitizer) Sanitize(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}

// ValidateTags 校验白名单标签是否正确闭合且不交叉嵌套
func (s *Sanitizer) ValidateTags(text string) bool {
	var stack []string
	for _, match := range tagPattern.FindAllStringSubmatch(text, -1) {
		closing := match[1] == "/"
		name := strings.ToLower(match[2])
		selfClosing := match[3] == "/"
		if !allowedTags[name] || selfClosing {
			continue
		}
		if closing {
			if len(stack) == 0 || stack[len(stack)-1] != name {
				return false
			}
			stack = stack[:len(stack)-1]
		} else {
			stack = append(stack, name)
		}
	}
	return len(stack) == 0
}
