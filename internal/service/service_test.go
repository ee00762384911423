package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comments-service/internal/model"
	"comments-service/pkg/logger"
	"comments-service/pkg/redis"
	"comments-service/pkg/snowflake"
)

func init() {
	if err := snowflake.InitGlobalSnowflake(1); err != nil {
		panic(err)
	}
}

// fakeCommentDAO 内存实现，行为与存储层约定一致
type fakeCommentDAO struct {
	mu        sync.Mutex
	comments  map[int64]*model.Comment
	createErr error
	listCalls int
}

func newFakeCommentDAO() *fakeCommentDAO {
	return &fakeCommentDAO{comments: make(map[int64]*model.Comment)}
}

func (f *fakeCommentDAO) CreateComment(_ context.Context, comment *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if comment.ParentID != 0 {
		parent, ok := f.comments[comment.ParentID]
		if !ok {
			return model.ErrParentNotFound
		}
		comment.RootID = parent.RootID
		if comment.RootID == 0 {
			comment.RootID = parent.ID
		}
	}
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeCommentDAO) GetComment(_ context.Context, commentID int64) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[commentID]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	return c, nil
}

func (f *fakeCommentDAO) GetCommentWithDescendants(ctx context.Context, commentID int64) (*model.Comment, []*model.Comment, error) {
	c, err := f.GetComment(ctx, commentID)
	if err != nil {
		return nil, nil, err
	}
	rootID := c.RootID
	if rootID == 0 {
		rootID = c.ID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var descendants []*model.Comment
	for _, other := range f.comments {
		if other.RootID == rootID && other.ID != c.ID {
			descendants = append(descendants, other)
		}
	}
	return c, descendants, nil
}

func (f *fakeCommentDAO) GetTopLevelComments(_ context.Context, params *model.GetCommentsParams) ([]*model.Comment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	var top []*model.Comment
	for _, c := range f.comments {
		if c.IsTopLevel() {
			top = append(top, c)
		}
	}
	sort.Slice(top, func(i, j int) bool { return top[i].ID > top[j].ID })
	total := int64(len(top))
	start := (params.Page - 1) * params.PageSize
	if start > len(top) {
		start = len(top)
	}
	end := start + params.PageSize
	if end > len(top) {
		end = len(top)
	}
	return top[start:end], total, nil
}

func (f *fakeCommentDAO) ListComments(_ context.Context, afterID int64, limit int) ([]*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*model.Comment
	for _, c := range f.comments {
		if c.ID > afterID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeCommentDAO) GetAttachmentByStoredName(_ context.Context, storedName string) (*model.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.comments {
		if c.Attachment != nil && c.Attachment.StoredFileName == storedName {
			return c.Attachment, nil
		}
	}
	return nil, model.ErrFileNotFound
}

type serviceFixture struct {
	svc        *CommentService
	commentDAO *fakeCommentDAO
	searchDAO  *fakeSearchDAO
	broker     *fakeBroker
	mr         *miniredis.Miniredis
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewRedisClientFromExisting(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

	commentDAO := newFakeCommentDAO()
	searchDAO := newFakeSearchDAO()
	broker := &fakeBroker{}
	log := logger.NewNopLogger()

	storage, err := NewStorageService(t.TempDir())
	require.NoError(t, err)

	svc := NewCommentService(
		commentDAO,
		NewEventPublisher(broker, "comments.events", log),
		NewCacheService(client),
		NewIndexService(searchDAO, commentDAO, log),
		nil, // 验证码按用例单独开启
		storage,
		5*time.Minute,
		log,
	)
	return &serviceFixture{svc: svc, commentDAO: commentDAO, searchDAO: searchDAO, broker: broker, mr: mr}
}

func validParams() *model.CreateCommentParams {
	return &model.CreateCommentParams{
		UserName: "alice_01",
		Email:    "alice@example.com",
		HomePage: "https://example.com",
		Text:     "hello <strong>world</strong>",
	}
}

func TestCreateCommentPublishesExactlyOneEvent(t *testing.T) {
	fx := newServiceFixture(t)

	dto, err := fx.svc.CreateComment(context.Background(), validParams())
	require.NoError(t, err)
	assert.NotZero(t, dto.ID)

	msgs := fx.broker.sent()
	require.Len(t, msgs, 1)

	stored, err := fx.commentDAO.GetComment(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPendingEvents())
}

func TestCreateCommentSurvivesBrokerOutage(t *testing.T) {
	fx := newServiceFixture(t)
	fx.broker.err = errors.New("broker down")

	dto, err := fx.svc.CreateComment(context.Background(), validParams())
	require.NoError(t, err)

	// 发布失败不回滚已提交的评论
	_, err = fx.commentDAO.GetComment(context.Background(), dto.ID)
	assert.NoError(t, err)
}

func TestCreateCommentFailureDoesNotPublish(t *testing.T) {
	fx := newServiceFixture(t)
	fx.commentDAO.createErr = errors.New("db down")

	_, err := fx.svc.CreateComment(context.Background(), validParams())
	require.Error(t, err)
	assert.Empty(t, fx.broker.sent())
}

func TestCreateCommentLowercasesEmail(t *testing.T) {
	fx := newServiceFixture(t)

	params := validParams()
	params.Email = "Alice@Example.COM"
	dto, err := fx.svc.CreateComment(context.Background(), params)
	require.NoError(t, err)

	stored, err := fx.commentDAO.GetComment(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestCreateCommentValidation(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*model.CreateCommentParams)
		want   error
	}{
		{"bad user name", func(p *model.CreateCommentParams) { p.UserName = "алиса" }, model.ErrInvalidUserName},
		{"empty user name", func(p *model.CreateCommentParams) { p.UserName = "" }, model.ErrInvalidUserName},
		{"bad email", func(p *model.CreateCommentParams) { p.Email = "not-an-email" }, model.ErrInvalidEmail},
		{"ftp home page", func(p *model.CreateCommentParams) { p.HomePage = "ftp://example.com" }, model.ErrInvalidHomePage},
		{"relative home page", func(p *model.CreateCommentParams) { p.HomePage = "/profile" }, model.ErrInvalidHomePage},
		{"empty text", func(p *model.CreateCommentParams) { p.Text = "   " }, model.ErrInvalidText},
		{"unbalanced tags", func(p *model.CreateCommentParams) { p.Text = "<strong>oops" }, model.ErrInvalidText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(params)
			_, err := fx.svc.CreateComment(ctx, params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateCommentSanitizesText(t *testing.T) {
	fx := newServiceFixture(t)

	params := validParams()
	params.Text = `hi <script>alert(1)</script><strong>bold</strong>`
	dto, err := fx.svc.CreateComment(context.Background(), params)
	require.NoError(t, err)

	assert.NotContains(t, dto.Text, "script")
	assert.Contains(t, dto.Text, "<strong>bold</strong>")
}

func TestCreateReplyRequiresExistingParent(t *testing.T) {
	fx := newServiceFixture(t)

	params := validParams()
	params.ParentID = 12345
	_, err := fx.svc.CreateComment(context.Background(), params)
	assert.ErrorIs(t, err, model.ErrParentNotFound)
}

func TestGetCommentsUsesReadThroughCache(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.CreateComment(ctx, validParams())
	require.NoError(t, err)

	first, err := fx.svc.GetComments(ctx, &model.GetCommentsParams{})
	require.NoError(t, err)
	require.Equal(t, 1, fx.commentDAO.listCalls)

	// 第二次命中缓存，存储层不再被访问，结果允许落后
	_, err = fx.svc.CreateComment(ctx, validParams())
	require.NoError(t, err)

	second, err := fx.svc.GetComments(ctx, &model.GetCommentsParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, fx.commentDAO.listCalls)
	assert.Equal(t, first.TotalCount, second.TotalCount)
	require.Len(t, second.Items, len(first.Items))
}

func TestGetCommentsCachedPageIsByteIdentical(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.CreateComment(ctx, validParams())
	require.NoError(t, err)

	first, err := fx.svc.GetComments(ctx, &model.GetCommentsParams{})
	require.NoError(t, err)
	second, err := fx.svc.GetComments(ctx, &model.GetCommentsParams{})
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestGetCommentsConcurrentFillConverges(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.CreateComment(ctx, validParams())
	require.NoError(t, err)

	const fillers = 8
	results := make([]*model.PagedResult, fillers)
	var wg sync.WaitGroup
	for i := 0; i < fillers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := fx.svc.GetComments(ctx, &model.GetCommentsParams{})
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	// 并发回填互相竞争也只会写入相同的页
	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, int64(1), result.TotalCount)
		require.Len(t, result.Items, 1)
	}

	var cached model.PagedResult
	hit, err := NewCacheService(redis.NewRedisClientFromExisting(
		goredis.NewClient(&goredis.Options{Addr: fx.mr.Addr()}),
	)).Get(ctx, model.ListCacheKey(1, 25, model.SortByCreatedAt, model.SortOrderDesc), &cached)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, int64(1), cached.TotalCount)
}

func TestGetCommentsCacheExpiry(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.CreateComment(ctx, validParams())
	require.NoError(t, err)

	_, err = fx.svc.GetComments(ctx, &model.GetCommentsParams{})
	require.NoError(t, err)

	fx.mr.FastForward(10 * time.Minute)

	_, err = fx.svc.GetComments(ctx, &model.GetCommentsParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, fx.commentDAO.listCalls)
}

func TestGetCommentsListHasEmptyReplies(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	parent, err := fx.svc.CreateComment(ctx, validParams())
	require.NoError(t, err)

	reply := validParams()
	reply.ParentID = parent.ID
	_, err = fx.svc.CreateComment(ctx, reply)
	require.NoError(t, err)

	result, err := fx.svc.GetComments(ctx, &model.GetCommentsParams{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.NotNil(t, result.Items[0].Replies)
	assert.Empty(t, result.Items[0].Replies)
}

func TestGetCommentTreeAssemblesReplies(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	root, err := fx.svc.CreateComment(ctx, validParams())
	require.NoError(t, err)

	reply := validParams()
	reply.ParentID = root.ID
	child, err := fx.svc.CreateComment(ctx, reply)
	require.NoError(t, err)

	nested := validParams()
	nested.ParentID = child.ID
	_, err = fx.svc.CreateComment(ctx, nested)
	require.NoError(t, err)

	tree, err := fx.svc.GetCommentTree(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, tree.Replies, 1)
	require.Len(t, tree.Replies[0].Replies, 1)
}

func TestGetCommentTreeNotFound(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.svc.GetCommentTree(context.Background(), 999)
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
}

func TestSearchCommentsSkipsStaleHits(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	dto, err := fx.svc.CreateComment(ctx, validParams())
	require.NoError(t, err)

	fx.searchDAO.exists = true
	fx.searchDAO.searchIDs = []int64{dto.ID, 424242}
	fx.searchDAO.searchTotal = 2

	result, err := fx.svc.SearchComments(ctx, &model.SearchCommentsParams{Query: "hello"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, dto.ID, result.Items[0].ID)
	assert.Equal(t, int64(2), result.TotalCount)
}

func TestSearchCommentsAssemblesHitSubtree(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	root, err := fx.svc.CreateComment(ctx, validParams())
	require.NoError(t, err)

	reply := validParams()
	reply.ParentID = root.ID
	_, err = fx.svc.CreateComment(ctx, reply)
	require.NoError(t, err)

	fx.searchDAO.exists = true
	fx.searchDAO.searchIDs = []int64{root.ID}
	fx.searchDAO.searchTotal = 1

	result, err := fx.svc.SearchComments(ctx, &model.SearchCommentsParams{Query: "hello"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Len(t, result.Items[0].Replies, 1)
}

func TestCreateCommentRequiresCaptchaWhenEnabled(t *testing.T) {
	fx := newServiceFixture(t)
	client := redis.NewRedisClientFromExisting(goredis.NewClient(&goredis.Options{Addr: fx.mr.Addr()}))
	fx.svc.captcha = NewCaptchaService(client)
	ctx := context.Background()

	_, err := fx.svc.CreateComment(ctx, validParams())
	assert.ErrorIs(t, err, model.ErrInvalidCaptcha)

	require.NoError(t, fx.mr.Set("captcha:key1", "abc"))
	params := validParams()
	params.CaptchaKey = "key1"
	params.CaptchaAnswer = "ABC"
	_, err = fx.svc.CreateComment(ctx, params)
	assert.NoError(t, err)
}

func TestCreateCommentWithAttachment(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	params := validParams()
	params.FileName = "notes.txt"
	params.File = strings.NewReader("attachment body")

	dto, err := fx.svc.CreateComment(ctx, params)
	require.NoError(t, err)
	require.NotNil(t, dto.Attachment)
	assert.Equal(t, "notes.txt", dto.Attachment.FileName)
	assert.Contains(t, dto.Attachment.URL, "/api/v1/files/")

	stored, err := fx.commentDAO.GetComment(ctx, dto.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Attachment)

	att, file, err := fx.svc.GetFile(ctx, stored.Attachment.StoredFileName)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "text/plain", att.ContentType)
}
