package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/commenttree"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/repository"
	"github.com/google/uuid"
)

// Store backs every mock repository. One mutex guards all maps so each
// repository call behaves like a single database transaction.
type Store struct {
	mu sync.Mutex

	Users         map[string]*models.User
	Profiles      map[string]*models.Profile
	Blogs         map[string]*models.Blog
	Members       map[string][]string // blog id -> user ids
	Posts         map[string]*models.Post
	Drafts        map[string]*models.Draft
	Comments      map[string]*models.Comment
	Trees         map[string]*commenttree.Tree // post id -> tree
	Rates         map[string]int               // kind|subject|user -> delta
	Answers       map[string][]*models.Answer  // post id -> answers
	Votes         map[string]bool              // post|user
	Marks         map[string]time.Time         // kind|post|user
	Friends       map[string][]string
	Messages      map[string]*models.Message
	Notifications []*models.Notification

	// Err, when set, is returned by every repository call
	Err error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Users:    make(map[string]*models.User),
		Profiles: make(map[string]*models.Profile),
		Blogs:    make(map[string]*models.Blog),
		Members:  make(map[string][]string),
		Posts:    make(map[string]*models.Post),
		Drafts:   make(map[string]*models.Draft),
		Comments: make(map[string]*models.Comment),
		Trees:    make(map[string]*commenttree.Tree),
		Rates:    make(map[string]int),
		Answers:  make(map[string][]*models.Answer),
		Votes:    make(map[string]bool),
		Marks:    make(map[string]time.Time),
		Friends:  make(map[string][]string),
		Messages: make(map[string]*models.Message),
	}
}

// NewRepositories returns repositories backed by a fresh in-memory store
func NewRepositories() (*repository.Repositories, *Store) {
	s := NewStore()
	return &repository.Repositories{
		User:         &MockUserRepository{s: s},
		Blog:         &MockBlogRepository{s: s},
		Post:         &MockPostRepository{s: s},
		Draft:        &MockDraftRepository{s: s},
		Comment:      &MockCommentRepository{s: s},
		Rate:         &MockRateRepository{s: s},
		Answer:       &MockAnswerRepository{s: s},
		Mark:         &MockMarkRepository{s: s},
		Friend:       &MockFriendRepository{s: s},
		Message:      &MockMessageRepository{s: s},
		Notification: &MockNotificationRepository{s: s},
	}, s
}

// Verify interface compliance
var (
	_ repository.UserRepository         = (*MockUserRepository)(nil)
	_ repository.BlogRepository         = (*MockBlogRepository)(nil)
	_ repository.PostRepository         = (*MockPostRepository)(nil)
	_ repository.DraftRepository        = (*MockDraftRepository)(nil)
	_ repository.CommentRepository      = (*MockCommentRepository)(nil)
	_ repository.RateRepository         = (*MockRateRepository)(nil)
	_ repository.AnswerRepository       = (*MockAnswerRepository)(nil)
	_ repository.MarkRepository         = (*MockMarkRepository)(nil)
	_ repository.FriendRepository       = (*MockFriendRepository)(nil)
	_ repository.MessageRepository      = (*MockMessageRepository)(nil)
	_ repository.NotificationRepository = (*MockNotificationRepository)(nil)
)

func key(parts ...string) string {
	return strings.Join(parts, "|")
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	if p.BlogID != nil {
		id := *p.BlogID
		c.BlogID = &id
	}
	return &c
}

func copyComment(c *models.Comment) *models.Comment {
	cc := *c
	return &cc
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	s *Store
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}
	for _, u := range m.s.Users {
		if strings.EqualFold(u.Name, user.Name) || u.Email == user.Email {
			return apperr.Validation("name", "name or email already taken")
		}
	}
	u := *user
	m.s.Users[user.ID] = &u
	m.s.Profiles[user.ID] = models.NewProfile(user.ID)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	if u, ok := m.s.Users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *MockUserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	for _, u := range m.s.Users {
		if strings.EqualFold(u.Name, name) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.Users[id]
	return ok, m.s.Err
}

func (m *MockUserRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	if p, ok := m.s.Profiles[userID]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}
	p, ok := m.s.Profiles[profile.UserID]
	if !ok {
		return apperr.NotFound("profile_not_found", "profile not found")
	}
	updated := *profile
	updated.Rate, updated.RateCount = p.Rate, p.RateCount
	updated.PostsRate, updated.CommentsRate, updated.BlogsRate = p.PostsRate, p.CommentsRate, p.BlogsRate
	m.s.Profiles[profile.UserID] = &updated
	return nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.Users), m.s.Err
}

// MockBlogRepository is a mock implementation of BlogRepository
type MockBlogRepository struct {
	s *Store
}

func (m *MockBlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}
	for _, b := range m.s.Blogs {
		if b.Name == blog.Name {
			return apperr.Validation("name", "blog name already taken")
		}
	}
	b := *blog
	m.s.Blogs[blog.ID] = &b
	m.s.Members[blog.ID] = []string{blog.OwnerID}
	return nil
}

func (m *MockBlogRepository) GetByID(ctx context.Context, id string) (*models.Blog, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	if b, ok := m.s.Blogs[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (m *MockBlogRepository) IsMember(ctx context.Context, blogID, userID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return indexOf(m.s.Members[blogID], userID) >= 0, m.s.Err
}

func (m *MockBlogRepository) AddMember(ctx context.Context, blogID, userID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return false, m.s.Err
	}
	if _, ok := m.s.Blogs[blogID]; !ok {
		return false, apperr.NotFound("blog_not_found", "blog not found")
	}
	if indexOf(m.s.Members[blogID], userID) >= 0 {
		return false, nil
	}
	m.s.Members[blogID] = append(m.s.Members[blogID], userID)
	return true, nil
}

func (m *MockBlogRepository) RemoveMember(ctx context.Context, blogID, userID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return false, m.s.Err
	}
	members := m.s.Members[blogID]
	i := indexOf(members, userID)
	if i < 0 {
		return false, nil
	}
	m.s.Members[blogID] = append(members[:i:i], members[i+1:]...)
	return true, nil
}

func (m *MockBlogRepository) ListMembers(ctx context.Context, blogID string) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return append([]string{}, m.s.Members[blogID]...), m.s.Err
}

func (m *MockBlogRepository) Count(ctx context.Context) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.Blogs), m.s.Err
}

func indexOf(values []string, v string) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	s *Store
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post, answers []*models.Answer) (*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	if _, ok := m.s.Users[post.AuthorID]; !ok {
		return nil, apperr.NotFound("reference_not_found", "author or blog not found")
	}
	if post.BlogID != nil {
		if _, ok := m.s.Blogs[*post.BlogID]; !ok {
			return nil, apperr.NotFound("reference_not_found", "author or blog not found")
		}
	}

	root := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    post.ID,
		Depth:     1,
		Path:      commenttree.RootPath(),
		CreatedAt: post.CreatedAt,
	}

	m.s.Posts[post.ID] = copyPost(post)
	m.s.Comments[root.ID] = root
	m.s.Trees[post.ID] = commenttree.New(root.ID)
	stored := make([]*models.Answer, 0, len(answers))
	for _, a := range answers {
		c := *a
		stored = append(stored, &c)
	}
	m.s.Answers[post.ID] = stored

	return copyComment(root), nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}
	existing, ok := m.s.Posts[post.ID]
	if !ok {
		return apperr.NotFound("post_not_found", "post not found")
	}
	updated := copyPost(post)
	updated.Rate, updated.RateCount = existing.Rate, existing.RateCount
	m.s.Posts[post.ID] = updated
	return nil
}

func (m *MockPostRepository) UpdateOptions(ctx context.Context, postID string, opts models.PostOptions) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}
	p, ok := m.s.Posts[postID]
	if !ok {
		return apperr.NotFound("post_not_found", "post not found")
	}
	p.PostOptions = opts
	return nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	if p, ok := m.s.Posts[id]; ok {
		return copyPost(p), nil
	}
	return nil, nil
}

func (m *MockPostRepository) List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	posts := []*models.Post{}
	for _, p := range m.sorted() {
		if m.matches(p, filter) {
			posts = append(posts, copyPost(p))
		}
	}
	if filter.Kind == models.FilterBlog {
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].Pinch && !posts[j].Pinch
		})
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (m *MockPostRepository) matches(p *models.Post, f models.PostFilter) bool {
	switch f.Kind {
	case models.FilterPersonal:
		return p.BlogID == nil
	case models.FilterMain:
		return p.BlogID != nil
	case models.FilterBlog:
		return p.BlogID != nil && *p.BlogID == f.Param
	case models.FilterTag:
		return indexOf(p.Tags, strings.ToLower(f.Param)) >= 0
	case models.FilterAuthor:
		return p.AuthorID == f.Param
	case models.FilterFavourite:
		_, ok := m.s.Marks[key(string(models.MarkFavourite), p.ID, f.Param)]
		return ok
	default:
		return true
	}
}

// sorted returns posts newest first
func (m *MockPostRepository) sorted() []*models.Post {
	posts := make([]*models.Post, 0, len(m.s.Posts))
	for _, p := range m.s.Posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (m *MockPostRepository) StreamPublished(ctx context.Context, limit int, callback func(*models.Post) error) error {
	m.s.mu.Lock()
	if m.s.Err != nil {
		m.s.mu.Unlock()
		return m.s.Err
	}
	posts := m.sorted()
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	copies := make([]*models.Post, len(posts))
	for i, p := range posts {
		copies[i] = copyPost(p)
	}
	m.s.mu.Unlock()

	for _, p := range copies {
		if err := callback(p); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockPostRepository) Count(ctx context.Context) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.Posts), m.s.Err
}

// MockDraftRepository is a mock implementation of DraftRepository
type MockDraftRepository struct {
	s *Store
}

func copyDraft(d *models.Draft) *models.Draft {
	c := *d
	if d.BlogID != nil {
		id := *d.BlogID
		c.BlogID = &id
	}
	return &c
}

func (m *MockDraftRepository) Create(ctx context.Context, draft *models.Draft) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}
	if _, ok := m.s.Users[draft.AuthorID]; !ok {
		return apperr.NotFound("reference_not_found", "author or blog not found")
	}
	if draft.BlogID != nil {
		if _, ok := m.s.Blogs[*draft.BlogID]; !ok {
			return apperr.NotFound("reference_not_found", "author or blog not found")
		}
	}
	m.s.Drafts[draft.ID] = copyDraft(draft)
	return nil
}

func (m *MockDraftRepository) Update(ctx context.Context, draft *models.Draft) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}
	existing, ok := m.s.Drafts[draft.ID]
	if !ok {
		return apperr.NotFound("draft_not_found", "draft not found")
	}
	if draft.BlogID != nil {
		if _, ok := m.s.Blogs[*draft.BlogID]; !ok {
			return apperr.NotFound("blog_not_found", "blog not found")
		}
	}
	updated := copyDraft(draft)
	updated.AuthorID, updated.CreatedAt = existing.AuthorID, existing.CreatedAt
	m.s.Drafts[draft.ID] = updated
	return nil
}

func (m *MockDraftRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	if d, ok := m.s.Drafts[id]; ok {
		return copyDraft(d), nil
	}
	return nil, nil
}

func (m *MockDraftRepository) ListForAuthor(ctx context.Context, authorID string) ([]*models.Draft, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	drafts := []*models.Draft{}
	for _, d := range m.s.Drafts {
		if d.AuthorID == authorID {
			drafts = append(drafts, copyDraft(d))
		}
	}
	sort.Slice(drafts, func(i, j int) bool {
		if drafts[i].UpdatedAt.Equal(drafts[j].UpdatedAt) {
			return drafts[i].ID > drafts[j].ID
		}
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	return drafts, nil
}

func (m *MockDraftRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return false, m.s.Err
	}
	if _, ok := m.s.Drafts[id]; !ok {
		return false, nil
	}
	delete(m.s.Drafts, id)
	return true, nil
}

// MockCommentRepository is a mock implementation of CommentRepository
// backed by one commenttree.Tree per post
type MockCommentRepository struct {
	s *Store
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	if c, ok := m.s.Comments[id]; ok {
		return copyComment(c), nil
	}
	return nil, nil
}

func (m *MockCommentRepository) GetRoot(ctx context.Context, postID string) (*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	tree, ok := m.s.Trees[postID]
	if !ok {
		return nil, nil
	}
	return copyComment(m.s.Comments[tree.Root().ID]), nil
}

func (m *MockCommentRepository) AddChild(ctx context.Context, parentID string, comment *models.Comment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}

	parent, ok := m.s.Comments[parentID]
	if !ok {
		return apperr.NotFound("comment_not_found", "parent comment not found")
	}
	tree := m.s.Trees[parent.PostID]

	node, err := tree.AddChild(parentID, comment.ID)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	comment.PostID = parent.PostID
	comment.Path = node.Path
	comment.Depth = node.Depth
	m.s.Comments[comment.ID] = copyComment(comment)

	ancestors, _ := tree.Ancestors(comment.ID)
	for _, a := range ancestors {
		c := m.s.Comments[a.ID]
		c.NumChild = a.NumChild
		c.Descendants = a.Descendants
	}
	return nil
}

func (m *MockCommentRepository) GetSubtree(ctx context.Context, commentID string) ([]*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}

	comments := []*models.Comment{}
	c, ok := m.s.Comments[commentID]
	if !ok {
		return comments, nil
	}
	nodes, err := m.s.Trees[c.PostID].Subtree(commentID)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		comments = append(comments, copyComment(m.s.Comments[n.ID]))
	}
	return comments, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.Comments) - len(m.s.Trees), m.s.Err
}

// MockRateRepository is a mock implementation of RateRepository
type MockRateRepository struct {
	s *Store
}

func (m *MockRateRepository) Apply(ctx context.Context, kind models.RateKind, subjectID, userID string, delta int) (models.RateResult, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return models.RateResult{}, m.s.Err
	}
	if !models.ValidRateKinds[kind] {
		return models.RateResult{}, apperr.Validation("kind", fmt.Sprintf("unknown rating kind: %s", kind))
	}

	k := key(string(kind), subjectID, userID)
	if _, done := m.s.Rates[k]; done {
		return models.RateResult{}, nil
	}

	notFound := apperr.NotFound(string(kind)+"_not_found", fmt.Sprintf("%s not found", kind))
	var rate, count *int
	switch kind {
	case models.RateKindPost:
		p, ok := m.s.Posts[subjectID]
		if !ok {
			return models.RateResult{}, notFound
		}
		rate, count = &p.Rate, &p.RateCount
	case models.RateKindComment:
		c, ok := m.s.Comments[subjectID]
		if !ok {
			return models.RateResult{}, notFound
		}
		rate, count = &c.Rate, &c.RateCount
	case models.RateKindBlog:
		b, ok := m.s.Blogs[subjectID]
		if !ok {
			return models.RateResult{}, notFound
		}
		rate, count = &b.Rate, &b.RateCount
	case models.RateKindUser:
		p, ok := m.s.Profiles[subjectID]
		if !ok {
			return models.RateResult{}, notFound
		}
		rate, count = &p.Rate, &p.RateCount
	}

	rater, ok := m.s.Profiles[userID]
	if !ok && kind != models.RateKindUser {
		return models.RateResult{}, apperr.NotFound("profile_not_found", "rater profile not found")
	}

	m.s.Rates[k] = delta
	*rate += delta
	*count++
	switch kind {
	case models.RateKindPost:
		rater.PostsRate++
	case models.RateKindComment:
		rater.CommentsRate++
	case models.RateKindBlog:
		rater.BlogsRate++
	}

	return models.RateResult{Applied: true, Rate: *rate, RateCount: *count}, nil
}

func (m *MockRateRepository) HasRated(ctx context.Context, kind models.RateKind, subjectID, userID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.Rates[key(string(kind), subjectID, userID)]
	return ok, m.s.Err
}

// MockAnswerRepository is a mock implementation of AnswerRepository
type MockAnswerRepository struct {
	s *Store
}

func (m *MockAnswerRepository) ListForPost(ctx context.Context, postID string) ([]*models.Answer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	answers := []*models.Answer{}
	for _, a := range m.s.Answers[postID] {
		c := *a
		answers = append(answers, &c)
	}
	return answers, nil
}

func (m *MockAnswerRepository) HasVoted(ctx context.Context, postID, userID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.Votes[key(postID, userID)], m.s.Err
}

func (m *MockAnswerRepository) Fix(ctx context.Context, postID, userID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return false, m.s.Err
	}
	return m.fix(postID, userID)
}

func (m *MockAnswerRepository) fix(postID, userID string) (bool, error) {
	if _, ok := m.s.Posts[postID]; !ok {
		return false, apperr.NotFound("post_not_found", "post or user not found")
	}
	k := key(postID, userID)
	if m.s.Votes[k] {
		return false, nil
	}
	m.s.Votes[k] = true
	return true, nil
}

func (m *MockAnswerRepository) CastBallot(ctx context.Context, postID, userID string, answerIDs []string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return false, m.s.Err
	}
	if m.s.Votes[key(postID, userID)] {
		return false, nil
	}

	var chosen []*models.Answer
	for _, a := range m.s.Answers[postID] {
		if indexOf(answerIDs, a.ID) >= 0 {
			chosen = append(chosen, a)
		}
	}
	if len(chosen) != len(answerIDs) {
		return false, apperr.Validation("answer_ids", "answer does not belong to this poll")
	}

	if _, err := m.fix(postID, userID); err != nil {
		return false, err
	}
	for _, a := range chosen {
		a.Count++
	}
	return true, nil
}

// MockMarkRepository is a mock implementation of MarkRepository
type MockMarkRepository struct {
	s *Store
}

func (m *MockMarkRepository) Toggle(ctx context.Context, kind models.MarkKind, postID, userID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return false, m.s.Err
	}
	if _, ok := m.s.Posts[postID]; !ok {
		return false, apperr.NotFound("post_not_found", "post not found")
	}
	k := key(string(kind), postID, userID)
	if _, ok := m.s.Marks[k]; ok {
		delete(m.s.Marks, k)
		return false, nil
	}
	m.s.Marks[k] = time.Now()
	return true, nil
}

func (m *MockMarkRepository) Has(ctx context.Context, kind models.MarkKind, postID, userID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.Marks[key(string(kind), postID, userID)]
	return ok, m.s.Err
}

func (m *MockMarkRepository) ListPostIDs(ctx context.Context, kind models.MarkKind, userID string) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}

	type entry struct {
		postID string
		at     time.Time
	}
	var entries []entry
	for k, at := range m.s.Marks {
		parts := strings.Split(k, "|")
		if parts[0] == string(kind) && parts[2] == userID {
			entries = append(entries, entry{postID: parts[1], at: at})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.postID)
	}
	return ids, nil
}

// MockFriendRepository is a mock implementation of FriendRepository
type MockFriendRepository struct {
	s *Store
}

func (m *MockFriendRepository) Add(ctx context.Context, userID, friendID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return false, m.s.Err
	}
	if _, ok := m.s.Users[friendID]; !ok {
		return false, apperr.NotFound("user_not_found", "user not found")
	}
	if indexOf(m.s.Friends[userID], friendID) >= 0 {
		return false, nil
	}
	m.s.Friends[userID] = append(m.s.Friends[userID], friendID)
	return true, nil
}

func (m *MockFriendRepository) Remove(ctx context.Context, userID, friendID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return false, m.s.Err
	}
	friends := m.s.Friends[userID]
	i := indexOf(friends, friendID)
	if i < 0 {
		return false, nil
	}
	m.s.Friends[userID] = append(friends[:i:i], friends[i+1:]...)
	return true, nil
}

func (m *MockFriendRepository) List(ctx context.Context, userID string) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return append([]string{}, m.s.Friends[userID]...), m.s.Err
}

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	s *Store
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}
	c := *msg
	m.s.Messages[msg.ID] = &c
	return nil
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	if msg, ok := m.s.Messages[id]; ok {
		c := *msg
		return &c, nil
	}
	return nil, nil
}

func (m *MockMessageRepository) MarkDeleted(ctx context.Context, id string, sides []models.MessageSide) (*models.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	msg, ok := m.s.Messages[id]
	if !ok {
		return nil, nil
	}
	for _, side := range sides {
		msg.MarkDeleted(side)
	}
	c := *msg
	if msg.Purged() {
		delete(m.s.Messages, id)
	}
	return &c, nil
}

func (m *MockMessageRepository) Inbox(ctx context.Context, userID string) ([]*models.Message, error) {
	return m.list(func(msg *models.Message) bool {
		return msg.RecipientID == userID && !msg.RecipientDeleted
	})
}

func (m *MockMessageRepository) Outbox(ctx context.Context, userID string) ([]*models.Message, error) {
	return m.list(func(msg *models.Message) bool {
		return msg.SenderID == userID && !msg.SenderDeleted
	})
}

func (m *MockMessageRepository) list(match func(*models.Message) bool) ([]*models.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	messages := []*models.Message{}
	for _, msg := range m.s.Messages {
		if match(msg) {
			c := *msg
			messages = append(messages, &c)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].CreatedAt.After(messages[j].CreatedAt) })
	return messages, nil
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	s *Store
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return m.s.Err
	}
	c := *n
	m.s.Notifications = append(m.s.Notifications, &c)
	return nil
}

func (m *MockNotificationRepository) ListForUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.Err != nil {
		return nil, m.s.Err
	}
	notifications := []*models.Notification{}
	for i := len(m.s.Notifications) - 1; i >= 0; i-- {
		if n := m.s.Notifications[i]; n.UserID == userID {
			c := *n
			notifications = append(notifications, &c)
		}
	}
	return notifications, nil
}
