package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/community-blog-api/internal/commenttree"
	"github.com/community-blog-api/internal/config"
	"github.com/community-blog-api/internal/content"
	"github.com/community-blog-api/internal/mocks"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/validation"
)

// buildTree adds n nodes, each under a parent chosen from earlier nodes
func buildTree(n int) *commenttree.Tree {
	tree := commenttree.New("root")
	ids := []string{"root"}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("c%d", i)
		tree.AddChild(ids[(i*7)%len(ids)], id)
		ids = append(ids, id)
	}
	return tree
}

// BenchmarkTreeAddChild benchmarks appending replies to a growing thread
func BenchmarkTreeAddChild(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		buildTree(1000)
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "comments/sec")
}

// BenchmarkTreeSubtree benchmarks flattening a 10k comment thread
func BenchmarkTreeSubtree(b *testing.B) {
	tree := buildTree(10000)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		tree.Subtree("root")
	}
}

// BenchmarkCommentRepository benchmarks the in-memory comment store end to end
func BenchmarkCommentRepository(b *testing.B) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()
	repos.User.Create(ctx, &models.User{ID: "author", Name: "author", Email: "author@test.com"})
	root, err := repos.Post.Create(ctx, &models.Post{ID: "post", AuthorID: "author", CreatedAt: time.Now()}, nil)
	if err != nil {
		b.Fatalf("Create post failed: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		repos.Comment.AddChild(ctx, root.ID, &models.Comment{ID: fmt.Sprintf("c%d", i), Text: "reply"})
	}
}

// BenchmarkSetText benchmarks sanitizing and cutting a long post
func BenchmarkSetText(b *testing.B) {
	pipeline := content.New(config.ContentConfig{
		AllowedTags:   config.DefaultAllowedTags,
		AllowedAttrs:  config.DefaultAllowedAttrs,
		PreviewLength: 1000,
		DefaultFormat: "html",
	})
	raw := strings.Repeat(`<p>Some <b>bold</b> text with a <a href="https://example.com" onclick="x()">link</a>.</p>`, 200)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		pipeline.SetText(raw, content.FormatHTML)
	}
}

// BenchmarkMentions benchmarks mention extraction
func BenchmarkMentions(b *testing.B) {
	text := strings.Repeat("<p>hello @alice and @bob, see <code>@ignored</code></p>", 100)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		content.Mentions(text)
	}
}

// BenchmarkParseTags benchmarks tag parsing
func BenchmarkParseTags(b *testing.B) {
	v := validation.NewValidator(20)
	raw := "Go, go, databases , trees,  comments, ratings, polls, GO"

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		v.ParseTags(raw)
	}
}
