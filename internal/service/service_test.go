package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/config"
	"github.com/community-blog-api/internal/content"
	"github.com/community-blog-api/internal/mocks"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/repository"
	"github.com/community-blog-api/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type testHarness struct {
	services   *service.Services
	repos      *repository.Repositories
	store      *mocks.Store
	pipeline   *content.Pipeline
	dispatcher *mocks.MockDispatcher
	pinger     *mocks.MockPinger
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	repos, store := mocks.NewRepositories()
	cfg := &config.Config{
		Content: config.ContentConfig{
			AllowedTags:   config.DefaultAllowedTags,
			AllowedAttrs:  config.DefaultAllowedAttrs,
			PreviewLength: 100,
			DefaultFormat: "html",
			MaxTags:       5,
		},
		Feed: config.FeedConfig{ExportLimit: 50},
	}
	pipeline := content.New(cfg.Content)
	dispatcher := mocks.NewMockDispatcher()
	pinger := &mocks.MockPinger{}

	return &testHarness{
		services:   service.NewServices(repos, pipeline, dispatcher, pinger, cfg, zerolog.Nop()),
		repos:      repos,
		store:      store,
		pipeline:   pipeline,
		dispatcher: dispatcher,
		pinger:     pinger,
	}
}

func (h *testHarness) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := h.services.User.CreateUser(context.Background(), &models.CreateUserRequest{
		Name:  name,
		Email: name + "@test.com",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func (h *testHarness) post(t *testing.T, authorID, text string) *models.Post {
	t.Helper()
	p, err := h.services.Post.CreatePost(context.Background(), authorID, &models.CreatePostRequest{
		Type:  models.PostTypePost,
		Title: "Title",
		Text:  text,
		Tags:  "Go, go , news",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	return p
}

func (h *testHarness) poll(t *testing.T, authorID string, postType models.PostType, answers string) *models.Post {
	t.Helper()
	p, err := h.services.Post.CreatePoll(context.Background(), authorID, &models.CreatePollRequest{
		Type:    postType,
		Title:   "Poll",
		Answers: answers,
	})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	return p
}

func expectKind(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("Expected %v, got %v", target, err)
	}
}

func TestPostService_CreatePost(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")

	post := h.post(t, alice.ID, "Hello <script>alert(1)</script><b>world</b>")

	if strings.Contains(post.Text, "script") {
		t.Errorf("Expected script to be stripped, got %q", post.Text)
	}
	if post.Text != "Hello <b>world</b>" {
		t.Errorf("Expected sanitized text, got %q", post.Text)
	}
	if len(post.Tags) != 2 || post.Tags[0] != "go" || post.Tags[1] != "news" {
		t.Errorf("Expected tags [go news], got %v", post.Tags)
	}
	if h.pinger.Calls != 1 {
		t.Errorf("Expected 1 hub ping, got %d", h.pinger.Calls)
	}

	root, _ := h.repos.Comment.GetRoot(ctx, post.ID)
	if root == nil {
		t.Fatal("Root comment should be created with the post")
	}
	thread, err := h.services.Comment.GetThread(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if thread == nil || len(thread) != 0 {
		t.Errorf("Expected empty thread, got %v", thread)
	}
}

func TestPostService_PingFailureDoesNotFailPublish(t *testing.T) {
	h := newTestHarness(t)
	alice := h.user(t, "alice")
	h.pinger.Err = errors.New("hub down")

	h.post(t, alice.ID, "text")
}

func TestPostService_Mentions(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")
	carol := h.user(t, "carol")

	off := false
	if _, err := h.services.User.UpdateProfile(ctx, carol.ID, &models.UpdateProfileRequest{NotifyMention: &off}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	h.post(t, alice.ID, "hi @bob, @Bob again, @alice, @carol, @nobody <code>@bob</code>")

	if len(h.dispatcher.Mentions) != 1 {
		t.Fatalf("Expected 1 mention, got %d", len(h.dispatcher.Mentions))
	}
	if h.dispatcher.Mentions[0].UserID != bob.ID {
		t.Errorf("Expected mention of bob, got %s", h.dispatcher.Mentions[0].UserID)
	}
}

func TestPostService_RequiresAddition(t *testing.T) {
	h := newTestHarness(t)
	alice := h.user(t, "alice")

	_, err := h.services.Post.CreatePost(context.Background(), alice.ID, &models.CreatePostRequest{
		Type:  models.PostTypeLink,
		Title: "A link",
		Text:  "see",
	})
	expectKind(t, err, apperr.ErrValidation)
}

func TestPostService_BlogMembership(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.user(t, "owner")
	outsider := h.user(t, "outsider")

	blog, err := h.services.Blog.CreateBlog(ctx, owner.ID, &models.CreateBlogRequest{Name: "Gophers"})
	if err != nil {
		t.Fatalf("CreateBlog failed: %v", err)
	}

	req := &models.CreatePostRequest{Type: models.PostTypePost, BlogID: blog.ID, Title: "In blog", Text: "text"}

	_, err = h.services.Post.CreatePost(ctx, outsider.ID, req)
	expectKind(t, err, apperr.ErrUnauthorized)

	post, err := h.services.Post.CreatePost(ctx, owner.ID, req)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.BlogID == nil || *post.BlogID != blog.ID {
		t.Error("Post should belong to the blog")
	}

	joined, _ := h.services.Blog.Join(ctx, blog.ID, outsider.ID)
	if !joined {
		t.Error("Join should add the member")
	}
	if _, err := h.services.Post.CreatePost(ctx, outsider.ID, req); err != nil {
		t.Errorf("Member should be able to post: %v", err)
	}
}

func TestPostService_SetBlog(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.user(t, "owner")
	blog, _ := h.services.Blog.CreateBlog(ctx, owner.ID, &models.CreateBlogRequest{Name: "Gophers"})

	post := &models.Post{}
	if err := h.services.Post.SetBlog(ctx, post, blog.ID); err != nil {
		t.Fatalf("SetBlog failed: %v", err)
	}
	if post.BlogID == nil {
		t.Fatal("BlogID should be set")
	}

	if err := h.services.Post.SetBlog(ctx, post, ""); err != nil {
		t.Fatalf("SetBlog failed: %v", err)
	}
	if post.BlogID != nil {
		t.Error("Empty id should clear the blog")
	}

	err := h.services.Post.SetBlog(ctx, post, uuid.New().String())
	expectKind(t, err, apperr.ErrNotFound)
}

func TestPostService_EditPost(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")
	post := h.post(t, alice.ID, "first")

	edit := &models.EditPostRequest{Title: "New", Text: "second", Tags: "x"}

	_, err := h.services.Post.EditPost(ctx, post.ID, bob.ID, edit)
	expectKind(t, err, apperr.ErrUnauthorized)

	edited, err := h.services.Post.EditPost(ctx, post.ID, alice.ID, edit)
	if err != nil {
		t.Fatalf("EditPost failed: %v", err)
	}
	if edited.Text != "second" || edited.Title != "New" {
		t.Errorf("Unexpected edited post: %+v", edited)
	}

	stored, _ := h.services.Post.GetPost(ctx, post.ID)
	if stored.Text != "second" {
		t.Errorf("Expected stored text 'second', got %q", stored.Text)
	}

	poll := h.poll(t, alice.ID, models.PostTypeAnswer, `["A","B"]`)
	_, err = h.services.Post.EditPost(ctx, poll.ID, alice.ID, edit)
	expectKind(t, err, apperr.ErrValidation)
}

func TestPostService_GetContent(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")

	raw := `<p>intro</p><cut><p>rest <a href="http://x" onclick="evil()">link</a></p>`
	post := h.post(t, alice.ID, raw)

	preview, _ := h.services.Post.GetContent(ctx, post.ID, models.ContentPreview)
	if tc, ok := preview.(models.TextContent); !ok || tc.Text != "<p>intro</p>" {
		t.Errorf("Unexpected preview: %#v", preview)
	}

	full, _ := h.services.Post.GetContent(ctx, post.ID, models.ContentFull)
	tc, ok := full.(models.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", full)
	}
	if want := h.pipeline.Parse(strings.Replace(raw, "<cut>", "", 1)); tc.Text != want {
		t.Errorf("Expected full text %q, got %q", want, tc.Text)
	}
	if h.pipeline.Parse(tc.Text) != tc.Text {
		t.Error("Sanitizing stored text should be a no-op")
	}

	poll := h.poll(t, alice.ID, models.PostTypeMultipleAnswer, `["A","B","C"]`)
	for _, kind := range []models.ContentKind{models.ContentPreview, models.ContentFull} {
		c, err := h.services.Post.GetContent(ctx, poll.ID, kind)
		if err != nil {
			t.Fatalf("GetContent failed: %v", err)
		}
		choice, ok := c.(models.ChoiceContent)
		if !ok || len(choice.Answers) != 3 {
			t.Errorf("Expected 3 answers for kind %d, got %#v", kind, c)
		}
	}

	_, err := h.services.Post.GetContent(ctx, uuid.New().String(), models.ContentFull)
	expectKind(t, err, apperr.ErrNotFound)
}

func TestPostService_CreatePollValidation(t *testing.T) {
	h := newTestHarness(t)
	alice := h.user(t, "alice")

	for _, answers := range []string{``, `not json`, `["only one"]`, `["", " "]`} {
		_, err := h.services.Post.CreatePoll(context.Background(), alice.ID, &models.CreatePollRequest{
			Type:    models.PostTypeAnswer,
			Title:   "Poll",
			Answers: answers,
		})
		expectKind(t, err, apperr.ErrValidation)
	}
}

func TestPostService_ListPosts(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")

	first := h.post(t, alice.ID, "one")
	time.Sleep(time.Millisecond)
	h.post(t, bob.ID, "two")

	all, _ := h.services.Post.ListPosts(ctx, models.PostFilter{})
	if len(all) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(all))
	}
	if all[1].ID != first.ID {
		t.Error("Posts should be listed newest first")
	}

	byAlice, _ := h.services.Post.ListPosts(ctx, models.PostFilter{Kind: models.FilterAuthor, Param: alice.ID})
	if len(byAlice) != 1 {
		t.Errorf("Expected 1 post by alice, got %d", len(byAlice))
	}

	tagged, _ := h.services.Post.ListPosts(ctx, models.PostFilter{Kind: models.FilterTag, Param: "news"})
	if len(tagged) != 2 {
		t.Errorf("Expected 2 tagged posts, got %d", len(tagged))
	}

	_, err := h.services.Post.ListPosts(ctx, models.PostFilter{Kind: "popular"})
	expectKind(t, err, apperr.ErrValidation)
}

func TestCommentService_ThreadOrder(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	post := h.post(t, alice.ID, "text")

	add := func(parentID, text string) *models.Comment {
		c, err := h.services.Comment.AddComment(ctx, post.ID, alice.ID, &models.CreateCommentRequest{ParentID: parentID, Text: text})
		if err != nil {
			t.Fatalf("AddComment failed: %v", err)
		}
		return c
	}

	c1 := add("", "C1")
	c2 := add("", "C2")
	c3 := add(c1.ID, "C3")

	thread, _ := h.services.Comment.GetThread(ctx, post.ID)
	want := []string{c1.ID, c3.ID, c2.ID}
	if len(thread) != len(want) {
		t.Fatalf("Expected %d comments, got %d", len(want), len(thread))
	}
	for i, c := range thread {
		if c.ID != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], c.ID)
		}
	}

	if c1.Margin() != 0 || c3.Margin() != 20 {
		t.Errorf("Expected margins 0 and 20, got %d and %d", c1.Margin(), c3.Margin())
	}

	sub, _ := h.services.Comment.GetSubtree(ctx, c1.ID)
	if len(sub) != 1 || sub[0].ID != c3.ID {
		t.Errorf("Expected subtree [C3], got %v", sub)
	}
}

func TestCommentService_ForeignParentFallsBackToRoot(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	p1 := h.post(t, alice.ID, "one")
	p2 := h.post(t, alice.ID, "two")

	other, _ := h.services.Comment.AddComment(ctx, p2.ID, alice.ID, &models.CreateCommentRequest{Text: "elsewhere"})

	c, err := h.services.Comment.AddComment(ctx, p1.ID, alice.ID, &models.CreateCommentRequest{ParentID: other.ID, Text: "reply"})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if c.PostID != p1.ID || c.Depth != 2 {
		t.Errorf("Expected first-level comment on p1, got post %s depth %d", c.PostID, c.Depth)
	}

	_, err = h.services.Comment.AddComment(ctx, uuid.New().String(), alice.ID, &models.CreateCommentRequest{Text: "orphan"})
	expectKind(t, err, apperr.ErrNotFound)

	_, err = h.services.Comment.AddComment(ctx, p1.ID, alice.ID, &models.CreateCommentRequest{Text: "<script>x</script>"})
	expectKind(t, err, apperr.ErrValidation)
}

func TestRatingService_Rate(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")
	post := h.post(t, alice.ID, "text")

	_, err := h.services.Rating.Rate(ctx, models.RateKindPost, post.ID, alice.ID, 1)
	expectKind(t, err, apperr.ErrUnauthorized)

	_, err = h.services.Rating.Rate(ctx, models.RateKindPost, post.ID, bob.ID, 2)
	expectKind(t, err, apperr.ErrValidation)

	first, err := h.services.Rating.Rate(ctx, models.RateKindPost, post.ID, bob.ID, 1)
	if err != nil || !first.Applied {
		t.Fatalf("First rating should apply: %+v %v", first, err)
	}
	second, err := h.services.Rating.Rate(ctx, models.RateKindPost, post.ID, bob.ID, 1)
	if err != nil {
		t.Fatalf("Second rating should not fail: %v", err)
	}
	if second.Applied {
		t.Error("Second rating should not apply")
	}

	stored, _ := h.services.Post.GetPost(ctx, post.ID)
	if stored.RateCount != 1 || stored.Rate != 1 {
		t.Errorf("Expected rate 1/1, got %d/%d", stored.Rate, stored.RateCount)
	}

	res, err := h.services.Rating.Rate(ctx, models.RateKindUser, alice.ID, bob.ID, -1)
	if err != nil || !res.Applied || res.Rate != -1 {
		t.Errorf("User rating should apply: %+v %v", res, err)
	}

	root, _ := h.repos.Comment.GetRoot(ctx, post.ID)
	_, err = h.services.Rating.Rate(ctx, models.RateKindComment, root.ID, bob.ID, 1)
	expectKind(t, err, apperr.ErrNotFound)
}

func TestPollService_SingleAnswer(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	voter := h.user(t, "voter")
	poll := h.poll(t, alice.ID, models.PostTypeAnswer, `["A","B"]`)

	answers, _ := h.services.Poll.Results(ctx, poll.ID)

	ok, _ := h.services.Poll.Check(ctx, poll.ID, voter.ID)
	if !ok {
		t.Error("Voter should be eligible")
	}

	_, err := h.services.Poll.VoteMultiple(ctx, poll.ID, voter.ID, []string{answers[0].ID, answers[1].ID})
	expectKind(t, err, apperr.ErrValidation)

	voted, err := h.services.Poll.Vote(ctx, poll.ID, voter.ID, answers[0].ID)
	if err != nil || !voted {
		t.Fatalf("Vote should succeed: %v", err)
	}

	ok, _ = h.services.Poll.Check(ctx, poll.ID, voter.ID)
	if ok {
		t.Error("Check should be false after voting")
	}

	voted, _ = h.services.Poll.Vote(ctx, poll.ID, voter.ID, answers[1].ID)
	if voted {
		t.Error("Second vote should be refused")
	}

	answers, _ = h.services.Poll.Results(ctx, poll.ID)
	if answers[0].Count != 1 || answers[1].Count != 0 {
		t.Errorf("Expected counts [1 0], got [%d %d]", answers[0].Count, answers[1].Count)
	}
}

func TestPollService_MultipleAnswer(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	voter := h.user(t, "voter")
	late := h.user(t, "late")
	poll := h.poll(t, alice.ID, models.PostTypeMultipleAnswer, `["A","B","C"]`)
	answers, _ := h.services.Poll.Results(ctx, poll.ID)

	_, err := h.services.Poll.VoteMultiple(ctx, poll.ID, voter.ID, []string{answers[0].ID, uuid.New().String()})
	expectKind(t, err, apperr.ErrValidation)

	voted, err := h.services.Poll.VoteMultiple(ctx, poll.ID, voter.ID, []string{answers[0].ID, answers[2].ID, answers[0].ID})
	if err != nil || !voted {
		t.Fatalf("VoteMultiple should succeed: %v", err)
	}

	answers, _ = h.services.Poll.Results(ctx, poll.ID)
	if answers[0].Count != 1 || answers[1].Count != 0 || answers[2].Count != 1 {
		t.Errorf("Unexpected counts [%d %d %d]", answers[0].Count, answers[1].Count, answers[2].Count)
	}

	fixed, _ := h.services.Poll.Fix(ctx, poll.ID, late.ID)
	if !fixed {
		t.Error("Fix should write the lock")
	}
	voted, _ = h.services.Poll.VoteMultiple(ctx, poll.ID, late.ID, []string{answers[1].ID})
	if voted {
		t.Error("Vote after fix should be refused")
	}

	text := h.post(t, alice.ID, "not a poll")
	_, err = h.services.Poll.Check(ctx, text.ID, voter.ID)
	expectKind(t, err, apperr.ErrValidation)
}

func TestBlogService_Membership(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.user(t, "owner")
	bob := h.user(t, "bob")
	blog, _ := h.services.Blog.CreateBlog(ctx, owner.ID, &models.CreateBlogRequest{Name: "Gophers"})

	member, _ := h.services.Blog.CheckUser(ctx, blog.ID, owner.ID)
	if !member {
		t.Error("Owner should be a member")
	}
	joined, _ := h.services.Blog.Join(ctx, blog.ID, owner.ID)
	if joined {
		t.Error("Owner join should be a no-op")
	}

	_, err := h.services.Blog.Leave(ctx, blog.ID, owner.ID)
	expectKind(t, err, apperr.ErrValidation)

	h.services.Blog.Join(ctx, blog.ID, bob.ID)
	left, _ := h.services.Blog.Leave(ctx, blog.ID, bob.ID)
	if !left {
		t.Error("Bob should leave the blog")
	}

	_, err = h.services.Blog.CreateBlog(ctx, bob.ID, &models.CreateBlogRequest{Name: "Gophers"})
	expectKind(t, err, apperr.ErrValidation)
}

func TestSocialService_MessageSoftDelete(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")

	msg, err := h.services.Social.SendMessage(ctx, alice.ID, &models.SendMessageRequest{RecipientID: bob.ID, Title: "Hi", Text: "hello"})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	updated, err := h.services.Social.RemoveMessage(ctx, msg.ID, alice.ID)
	if err != nil {
		t.Fatalf("RemoveMessage failed: %v", err)
	}
	if updated.Deleted != 1 {
		t.Errorf("Expected deleted 1, got %d", updated.Deleted)
	}

	// removing the same side twice does not count twice
	updated, _ = h.services.Social.RemoveMessage(ctx, msg.ID, alice.ID)
	if updated.Deleted != 1 {
		t.Errorf("Expected deleted to stay 1, got %d", updated.Deleted)
	}

	inbox, _ := h.services.Social.Inbox(ctx, bob.ID)
	if len(inbox) != 1 {
		t.Errorf("Recipient should still see the message, got %d", len(inbox))
	}

	updated, _ = h.services.Social.RemoveMessage(ctx, msg.ID, bob.ID)
	if !updated.Purged() {
		t.Error("Message should be purged after both sides deleted")
	}
	_, err = h.services.Social.RemoveMessage(ctx, msg.ID, bob.ID)
	expectKind(t, err, apperr.ErrNotFound)
}

func TestSocialService_MarksAndFriends(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")
	post := h.post(t, alice.ID, "text")

	on, _ := h.services.Social.ToggleMark(ctx, models.MarkSpy, post.ID, bob.ID)
	off, _ := h.services.Social.ToggleMark(ctx, models.MarkSpy, post.ID, bob.ID)
	if !on || off {
		t.Errorf("Expected toggle on then off, got %v then %v", on, off)
	}

	added, _ := h.services.Social.AddFriend(ctx, alice.ID, bob.ID)
	again, _ := h.services.Social.AddFriend(ctx, alice.ID, bob.ID)
	if !added || again {
		t.Errorf("Expected add then already-present, got %v then %v", added, again)
	}

	_, err := h.services.Social.AddFriend(ctx, alice.ID, alice.ID)
	expectKind(t, err, apperr.ErrValidation)

	friends, _ := h.services.Social.Friends(ctx, alice.ID)
	if len(friends) != 1 || friends[0] != bob.ID {
		t.Errorf("Expected [bob], got %v", friends)
	}
}

func TestFeedService_StreamPosts(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	for i := 0; i < 3; i++ {
		h.post(t, alice.ID, "text")
	}

	var buf bytes.Buffer
	if err := h.services.Feed.StreamPosts(ctx, &buf, "ndjson"); err != nil {
		t.Fatalf("StreamPosts failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("Expected 3 lines, got %d", len(lines))
	}

	buf.Reset()
	if err := h.services.Feed.StreamPosts(ctx, &buf, "json"); err != nil {
		t.Fatalf("StreamPosts failed: %v", err)
	}
	var posts []models.Post
	if err := json.Unmarshal(buf.Bytes(), &posts); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(posts) != 3 {
		t.Errorf("Expected 3 posts, got %d", len(posts))
	}

	if err := h.services.Feed.StreamPosts(ctx, &buf, "csv"); err == nil {
		t.Error("Expected error for unsupported format")
	}

	count, _ := h.services.Feed.GetCount(ctx, "posts")
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}
}

func TestUserService_Notifications(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")

	_, err := h.services.User.CreateUser(ctx, &models.CreateUserRequest{Name: "ALICE", Email: "other@test.com"})
	expectKind(t, err, apperr.ErrValidation)

	profile, err := h.services.User.GetProfile(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if !profile.NotifyMention {
		t.Error("Mentions should be on by default")
	}

	list, err := h.services.User.Notifications(ctx, alice.ID)
	if err != nil || len(list) != 0 {
		t.Errorf("Expected no notifications, got %v %v", list, err)
	}
}

func TestPostService_PollTextMentions(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")

	poll, err := h.services.Post.CreatePoll(ctx, alice.ID, &models.CreatePollRequest{
		Type:    models.PostTypeAnswer,
		Title:   "Poll",
		Text:    "what do you think, @bob?<script>x</script>",
		Answers: `["yes","no"]`,
	})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	if strings.Contains(poll.Text, "script") || !strings.Contains(poll.Text, "@bob") {
		t.Errorf("Expected sanitized poll text, got %q", poll.Text)
	}
	if len(h.dispatcher.Mentions) != 1 || h.dispatcher.Mentions[0].UserID != bob.ID {
		t.Errorf("Expected one mention of bob, got %+v", h.dispatcher.Mentions)
	}

	c, _ := h.services.Post.GetContent(ctx, poll.ID, models.ContentFull)
	if _, ok := c.(models.ChoiceContent); !ok {
		t.Errorf("Poll content should stay the answer list, got %T", c)
	}
}

func TestPostService_EditNotifiesOnlyNewMentions(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")
	carol := h.user(t, "carol")

	post := h.post(t, alice.ID, "hello @bob")
	if len(h.dispatcher.Mentions) != 1 {
		t.Fatalf("Expected 1 mention, got %d", len(h.dispatcher.Mentions))
	}

	_, err := h.services.Post.EditPost(ctx, post.ID, alice.ID, &models.EditPostRequest{Title: "Title", Text: "hello @Bob and @carol"})
	if err != nil {
		t.Fatalf("EditPost failed: %v", err)
	}
	if len(h.dispatcher.Mentions) != 2 {
		t.Fatalf("Expected 2 mentions, got %d", len(h.dispatcher.Mentions))
	}
	if h.dispatcher.Mentions[1].UserID != carol.ID {
		t.Errorf("Expected new mention of carol, got %s", h.dispatcher.Mentions[1].UserID)
	}

	_, err = h.services.Post.EditPost(ctx, post.ID, alice.ID, &models.EditPostRequest{Title: "Title", Text: "still @bob and @carol"})
	if err != nil {
		t.Fatalf("EditPost failed: %v", err)
	}
	if len(h.dispatcher.Mentions) != 2 {
		t.Errorf("Unchanged mentions should not notify again, got %d", len(h.dispatcher.Mentions))
	}
	for _, m := range h.dispatcher.Mentions {
		if m.UserID == bob.ID && m.PostID != post.ID {
			t.Errorf("Unexpected mention %+v", m)
		}
	}
}

func TestPostService_Options(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.user(t, "owner")
	member := h.user(t, "member")
	reader := h.user(t, "reader")

	blog, _ := h.services.Blog.CreateBlog(ctx, owner.ID, &models.CreateBlogRequest{Name: "Gophers"})
	h.services.Blog.Join(ctx, blog.ID, member.ID)

	req := &models.CreatePostRequest{Type: models.PostTypePost, BlogID: blog.ID, Title: "In blog", Text: "text"}
	older, _ := h.services.Post.CreatePost(ctx, member.ID, req)
	time.Sleep(time.Millisecond)
	h.services.Post.CreatePost(ctx, member.ID, req)

	yes := true
	_, err := h.services.Post.SetOptions(ctx, older.ID, reader.ID, &models.UpdatePostOptionsRequest{Pinch: &yes})
	expectKind(t, err, apperr.ErrUnauthorized)

	pinned, err := h.services.Post.SetOptions(ctx, older.ID, owner.ID, &models.UpdatePostOptionsRequest{Pinch: &yes})
	if err != nil {
		t.Fatalf("Blog owner should set options: %v", err)
	}
	if !pinned.Pinch || pinned.DisableReply || pinned.DisableRate {
		t.Errorf("Unexpected options: %+v", pinned.PostOptions)
	}

	listed, _ := h.services.Post.ListPosts(ctx, models.PostFilter{Kind: models.FilterBlog, Param: blog.ID})
	if len(listed) != 2 || listed[0].ID != older.ID {
		t.Error("Pinned post should be listed first in its blog")
	}

	locked, err := h.services.Post.SetOptions(ctx, older.ID, member.ID, &models.UpdatePostOptionsRequest{DisableReply: &yes, DisableRate: &yes})
	if err != nil {
		t.Fatalf("Author should set options: %v", err)
	}
	if !locked.Pinch {
		t.Error("Options not in the request should be kept")
	}

	_, err = h.services.Comment.AddComment(ctx, older.ID, reader.ID, &models.CreateCommentRequest{Text: "hi"})
	expectKind(t, err, apperr.ErrUnauthorized)

	_, err = h.services.Rating.Rate(ctx, models.RateKindPost, older.ID, reader.ID, 1)
	expectKind(t, err, apperr.ErrUnauthorized)

	stored, _ := h.services.Post.GetPost(ctx, older.ID)
	if !stored.DisableReply || !stored.DisableRate || !stored.Pinch {
		t.Errorf("Expected options to be stored, got %+v", stored.PostOptions)
	}
}

func TestDraftService_Lifecycle(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")

	_, err := h.services.Draft.SaveDraft(ctx, alice.ID, "", &models.SaveDraftRequest{Text: "no type"})
	expectKind(t, err, apperr.ErrValidation)

	postType := models.PostTypePost
	draft, err := h.services.Draft.SaveDraft(ctx, alice.ID, "", &models.SaveDraftRequest{Type: &postType, Text: "hi @bob<script>x</script>"})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if draft.Title != models.DefaultDraftTitle {
		t.Errorf("Expected default title, got %q", draft.Title)
	}
	if len(h.dispatcher.Mentions) != 0 {
		t.Error("Saving a draft should not notify mentions")
	}

	updated, err := h.services.Draft.SaveDraft(ctx, alice.ID, draft.ID, &models.SaveDraftRequest{Title: "Ready", Text: "hi @bob<script>x</script>", Tags: "go"})
	if err != nil {
		t.Fatalf("SaveDraft update failed: %v", err)
	}
	if updated.Type != models.PostTypePost || updated.Title != "Ready" {
		t.Errorf("Unexpected updated draft: %+v", updated)
	}

	_, err = h.services.Draft.GetDraft(ctx, draft.ID, bob.ID)
	expectKind(t, err, apperr.ErrNotFound)
	_, err = h.services.Draft.SaveDraft(ctx, bob.ID, draft.ID, &models.SaveDraftRequest{Title: "Mine"})
	expectKind(t, err, apperr.ErrNotFound)

	spare, _ := h.services.Draft.SaveDraft(ctx, alice.ID, "", &models.SaveDraftRequest{Type: &postType, Title: "Spare"})
	drafts, _ := h.services.Draft.ListDrafts(ctx, alice.ID)
	if len(drafts) != 2 {
		t.Fatalf("Expected 2 drafts, got %d", len(drafts))
	}

	post, err := h.services.Draft.PublishDraft(ctx, draft.ID, alice.ID)
	if err != nil {
		t.Fatalf("PublishDraft failed: %v", err)
	}
	if post.Title != "Ready" || strings.Contains(post.Text, "script") {
		t.Errorf("Unexpected published post: %+v", post)
	}
	if len(post.Tags) != 1 || post.Tags[0] != "go" {
		t.Errorf("Expected tags [go], got %v", post.Tags)
	}
	if len(h.dispatcher.Mentions) != 1 || h.dispatcher.Mentions[0].UserID != bob.ID {
		t.Errorf("Publishing should notify mentions, got %+v", h.dispatcher.Mentions)
	}
	_, err = h.services.Draft.GetDraft(ctx, draft.ID, alice.ID)
	expectKind(t, err, apperr.ErrNotFound)

	if err := h.services.Draft.DeleteDraft(ctx, spare.ID, bob.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not found for another user, got %v", err)
	}
	if err := h.services.Draft.DeleteDraft(ctx, spare.ID, alice.ID); err != nil {
		t.Fatalf("DeleteDraft failed: %v", err)
	}
	drafts, _ = h.services.Draft.ListDrafts(ctx, alice.ID)
	if len(drafts) != 0 {
		t.Errorf("Expected no drafts, got %d", len(drafts))
	}
}

func TestDraftService_PublishKeepsDraftOnFailure(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.user(t, "owner")
	alice := h.user(t, "alice")
	blog, _ := h.services.Blog.CreateBlog(ctx, owner.ID, &models.CreateBlogRequest{Name: "Gophers"})

	postType := models.PostTypePost
	draft, err := h.services.Draft.SaveDraft(ctx, alice.ID, "", &models.SaveDraftRequest{Type: &postType, BlogID: blog.ID, Title: "Guest", Text: "text"})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	_, err = h.services.Draft.PublishDraft(ctx, draft.ID, alice.ID)
	expectKind(t, err, apperr.ErrUnauthorized)

	if _, err := h.services.Draft.GetDraft(ctx, draft.ID, alice.ID); err != nil {
		t.Errorf("Draft should survive a failed publish: %v", err)
	}
}

func TestDraftService_RejectsPolls(t *testing.T) {
	h := newTestHarness(t)
	alice := h.user(t, "alice")

	for _, postType := range []models.PostType{models.PostTypeAnswer, models.PostTypeMultipleAnswer} {
		pt := postType
		_, err := h.services.Draft.SaveDraft(context.Background(), alice.ID, "", &models.SaveDraftRequest{Type: &pt, Title: "Poll"})
		expectKind(t, err, apperr.ErrValidation)
	}
}

func TestRatingService_HasRated(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")
	post := h.post(t, alice.ID, "text")

	rated, err := h.services.Rating.HasRated(ctx, models.RateKindPost, post.ID, bob.ID)
	if err != nil || rated {
		t.Fatalf("Expected not rated, got %v %v", rated, err)
	}

	h.services.Rating.Rate(ctx, models.RateKindPost, post.ID, bob.ID, -1)
	if rated, _ := h.services.Rating.HasRated(ctx, models.RateKindPost, post.ID, bob.ID); !rated {
		t.Error("Expected rated after Rate")
	}

	_, err = h.services.Rating.HasRated(ctx, "planet", post.ID, bob.ID)
	expectKind(t, err, apperr.ErrValidation)
	_, err = h.services.Rating.HasRated(ctx, models.RateKindPost, "42", bob.ID)
	expectKind(t, err, apperr.ErrNotFound)
}
