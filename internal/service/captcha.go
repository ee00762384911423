package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mojocn/base64Captcha"

	"comments-service/internal/model"
	"comments-service/pkg/redis"
)

const (
	captchaKeyPrefix = "captcha:"
	captchaTTL       = 5 * time.Minute
)

// CaptchaService 图形验证码服务
// 答案一次性存放在Redis中，校验时取出即删除，过期或已用的key直接判失败
type CaptchaService struct {
	driver base64Captcha.Driver
	client *redis.RedisClient
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(client *redis.RedisClient) *CaptchaService {
	driver := base64Captcha.NewDriverString(
		80, 240, 6, base64Captcha.OptionShowHollowLine,
		5, "234567abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ",
		nil, nil, nil,
	)
	return &CaptchaService{driver: driver, client: client}
}

// Generate 生成一张验证码图片并暂存答案
func (s *CaptchaService) Generate(ctx context.Context) (*model.CaptchaDTO, error) {
	_, content, answer := s.driver.GenerateIdQuestionAnswer()
	item, err := s.driver.DrawCaptcha(content)
	if err != nil {
		return nil, fmt.Errorf("draw captcha: %w", err)
	}

	key := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.client.Set(ctx, captchaKeyPrefix+key, strings.ToLower(answer), captchaTTL); err != nil {
		return nil, fmt.Errorf("store captcha answer: %w", err)
	}

	return &model.CaptchaDTO{
		Key:   key,
		Image: item.EncodeB64string(),
	}, nil
}

// Verify 校验验证码，大小写不敏感，成功与否都作废该key
func (s *CaptchaService) Verify(ctx context.Context, key, answer string) error {
	if key == "" || answer == "" {
		return model.ErrInvalidCaptcha
	}

	stored, err := s.client.GetDel(ctx, captchaKeyPrefix+key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrInvalidCaptcha
		}
		return fmt.Errorf("load captcha answer: %w", err)
	}
	if !strings.EqualFold(stored, strings.TrimSpace(answer)) {
		return model.ErrInvalidCaptcha
	}
	return nil
}
