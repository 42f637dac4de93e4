package publish_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/usecase/notify"
	"blogsmith/internal/usecase/publish"
)

/* ───────── Fakes ───────── */

// fakeCMS records every call and lets tests fail individual steps.
type fakeCMS struct {
	postID   int64
	mediaID  int64
	rendered string

	createErr error
	uploadErr error
	altErr    error
	attachErr error
	creditErr error

	calls []string

	createdTitle   string
	createdContent string
	createdStatus  string
	uploadedPath   string
	uploadedType   string
	altMediaID     int64
	altText        string
	attachPostID   int64
	attachMediaID  int64
	creditPostID   int64
	creditContent  string
}

func newFakeCMS() *fakeCMS {
	return &fakeCMS{postID: 42, mediaID: 7, rendered: "<p>rendered body</p>"}
}

func (f *fakeCMS) CreatePost(_ context.Context, title, content, status string) (int64, error) {
	f.calls = append(f.calls, "create")
	f.createdTitle, f.createdContent, f.createdStatus = title, content, status
	if f.createErr != nil {
		return 0, f.createErr
	}
	return f.postID, nil
}

func (f *fakeCMS) UploadMedia(_ context.Context, path, contentType string) (int64, error) {
	f.calls = append(f.calls, "upload")
	f.uploadedPath, f.uploadedType = path, contentType
	if f.uploadErr != nil {
		return 0, f.uploadErr
	}
	return f.mediaID, nil
}

func (f *fakeCMS) UpdateAltText(_ context.Context, mediaID int64, altText string) error {
	f.calls = append(f.calls, "alt_text")
	f.altMediaID, f.altText = mediaID, altText
	return f.altErr
}

func (f *fakeCMS) SetFeaturedMedia(_ context.Context, postID, mediaID int64) (string, error) {
	f.calls = append(f.calls, "attach")
	f.attachPostID, f.attachMediaID = postID, mediaID
	if f.attachErr != nil {
		return "", f.attachErr
	}
	return f.rendered, nil
}

func (f *fakeCMS) UpdateContent(_ context.Context, postID int64, content string) error {
	f.calls = append(f.calls, "credit")
	f.creditPostID, f.creditContent = postID, content
	return f.creditErr
}

func (f *fakeCMS) EditLink(postID int64) string {
	return fmt.Sprintf("https://blog.example.com/wp-admin/post.php?post=%d&action=edit", postID)
}

// fakeImages hands out a canned temp path and counts cleanup calls.
type fakeImages struct {
	path string
	err  error

	downloads int
	cleanups  int
	lastURL   string
}

func (f *fakeImages) Download(_ context.Context, imageURL string) (string, func(), error) {
	f.downloads++
	f.lastURL = imageURL
	if f.err != nil {
		return "", nil, f.err
	}
	return f.path, func() { f.cleanups++ }, nil
}

// fakeNotifier implements notify.Service and records the last review.
type fakeNotifier struct {
	reviews []*entity.DraftReview
}

func (f *fakeNotifier) NotifyDraftReady(_ context.Context, review *entity.DraftReview) error {
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeNotifier) GetChannelHealth() []notify.ChannelHealthStatus { return nil }

func (f *fakeNotifier) Shutdown(_ context.Context) error { return nil }

func imageRequest() entity.PublishRequest {
	return entity.PublishRequest{
		Title:            "Go Concurrency Patterns",
		Content:          "<p>body</p>",
		Status:           "draft",
		FeaturedImageURL: "https://images.example.com/full.jpg",
		PhotographerName: "Alex Doe",
		PhotographerLink: "https://unsplash.com/@alexdoe",
	}
}

/* ───────── Create and validation ───────── */

func TestPublish_NoImage(t *testing.T) {
	cms := newFakeCMS()
	images := &fakeImages{path: "/tmp/featured-1.jpg"}
	svc := &publish.Service{Poster: cms, Images: images}

	post, err := svc.Publish(context.Background(), entity.PublishRequest{
		Title:   "Title",
		Content: "<p>body</p>",
		Status:  "publish",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), post.PostID)
	assert.Equal(t, entity.ImageNone, post.ImageStatus)
	assert.Empty(t, post.FeaturedImageURL)
	assert.Equal(t, []string{"create"}, cms.calls)
	assert.Zero(t, images.downloads)
}

func TestPublish_CreateFails(t *testing.T) {
	cms := newFakeCMS()
	cms.createErr = errors.New("503 from CMS")
	images := &fakeImages{path: "/tmp/featured-1.jpg"}
	svc := &publish.Service{Poster: cms, Images: images}

	_, err := svc.Publish(context.Background(), imageRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, publish.ErrPublishFailed)
	assert.Contains(t, err.Error(), "503 from CMS")
	assert.Equal(t, []string{"create"}, cms.calls, "nothing after a failed create")
	assert.Zero(t, images.downloads)
}

func TestPublish_InvalidRequest(t *testing.T) {
	cms := newFakeCMS()
	svc := &publish.Service{Poster: cms, Images: &fakeImages{}}

	_, err := svc.Publish(context.Background(), entity.PublishRequest{Content: "x", Status: "draft"})

	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)
	assert.Empty(t, cms.calls)
}

func TestPublish_CancellationPassesThrough(t *testing.T) {
	cms := newFakeCMS()
	cms.createErr = context.Canceled
	svc := &publish.Service{Poster: cms, Images: &fakeImages{}}

	_, err := svc.Publish(context.Background(), imageRequest())

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, publish.ErrPublishFailed)
}

/* ───────── Image workflow ───────── */

func TestPublish_FullImageWorkflow(t *testing.T) {
	cms := newFakeCMS()
	images := &fakeImages{path: "/tmp/featured-1.jpg"}
	svc := &publish.Service{Poster: cms, Images: images}
	req := imageRequest()

	post, err := svc.Publish(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, entity.ImageAttached, post.ImageStatus)
	assert.Equal(t, req.FeaturedImageURL, post.FeaturedImageURL)
	assert.Equal(t, []string{"create", "upload", "alt_text", "attach", "credit"}, cms.calls)

	assert.Equal(t, req.FeaturedImageURL, images.lastURL)
	assert.Equal(t, "/tmp/featured-1.jpg", cms.uploadedPath)
	assert.Equal(t, "image/jpeg", cms.uploadedType)
	assert.Equal(t, int64(7), cms.altMediaID)
	assert.Equal(t, "https://images.example.com/full.jpg by Alex Doe", cms.altText)
	assert.Equal(t, int64(42), cms.attachPostID)
	assert.Equal(t, int64(7), cms.attachMediaID)
	assert.Equal(t, 1, images.cleanups, "temp file removed after the workflow")

	wantCredit := `<p>rendered body</p>` +
		`<p style="font-size:small;">Photo by <a href="https://unsplash.com/@alexdoe" target="_blank" rel="noopener">Alex Doe</a> on <a href="https://unsplash.com" target="_blank" rel="noopener">Unsplash</a>.</p>`
	assert.Equal(t, wantCredit, cms.creditContent)

	for _, step := range []entity.ImageStep{
		entity.StepDownload, entity.StepUpload, entity.StepAltText, entity.StepAttach, entity.StepCredit,
	} {
		assert.Equal(t, entity.StepSuccess, post.StepOutcome(step).Status, string(step))
	}
}

func TestPublish_DownloadFails(t *testing.T) {
	cms := newFakeCMS()
	images := &fakeImages{err: errors.New("image size exceeds limit")}
	svc := &publish.Service{Poster: cms, Images: images}

	post, err := svc.Publish(context.Background(), imageRequest())

	require.NoError(t, err, "image failures never fail the publish")
	assert.Equal(t, entity.ImageFailed, post.ImageStatus)
	assert.Empty(t, post.FeaturedImageURL)
	assert.Equal(t, []string{"create"}, cms.calls, "no CMS image calls after a failed download")

	download := post.StepOutcome(entity.StepDownload)
	assert.Equal(t, entity.StepFailed, download.Status)
	assert.Contains(t, download.Reason, "image size exceeds limit")
	assert.Equal(t, entity.StepSkipped, post.StepOutcome(entity.StepUpload).Status)
	assert.Equal(t, entity.StepSkipped, post.StepOutcome(entity.StepAttach).Status)
}

func TestPublish_UploadFails(t *testing.T) {
	cms := newFakeCMS()
	cms.uploadErr = errors.New("413 payload too large")
	images := &fakeImages{path: "/tmp/featured-1.jpg"}
	svc := &publish.Service{Poster: cms, Images: images}

	post, err := svc.Publish(context.Background(), imageRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.ImageFailed, post.ImageStatus)
	assert.Equal(t, []string{"create", "upload"}, cms.calls)
	assert.Equal(t, 1, images.cleanups, "temp file removed even when upload fails")
	assert.Equal(t, entity.StepFailed, post.StepOutcome(entity.StepUpload).Status)
}

func TestPublish_AltTextFailureIsCosmetic(t *testing.T) {
	cms := newFakeCMS()
	cms.altErr = errors.New("400 invalid alt text")
	svc := &publish.Service{Poster: cms, Images: &fakeImages{path: "/tmp/featured-1.jpg"}}

	post, err := svc.Publish(context.Background(), imageRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.ImageAttached, post.ImageStatus, "attach must proceed despite alt text failure")
	assert.Equal(t, []string{"create", "upload", "alt_text", "attach", "credit"}, cms.calls)
	assert.Equal(t, entity.StepFailed, post.StepOutcome(entity.StepAltText).Status)
	assert.Equal(t, entity.StepSuccess, post.StepOutcome(entity.StepAttach).Status)
}

func TestPublish_AttachFails(t *testing.T) {
	cms := newFakeCMS()
	cms.attachErr = errors.New("circuit breaker open")
	svc := &publish.Service{Poster: cms, Images: &fakeImages{path: "/tmp/featured-1.jpg"}}

	post, err := svc.Publish(context.Background(), imageRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.ImageFailed, post.ImageStatus)
	assert.Empty(t, post.FeaturedImageURL, "image URL only echoed when the attach succeeded")
	assert.Equal(t, []string{"create", "upload", "alt_text", "attach"}, cms.calls)
	assert.Equal(t, entity.StepSkipped, post.StepOutcome(entity.StepCredit).Status)
}

func TestPublish_CreditFailureKeepsAttached(t *testing.T) {
	cms := newFakeCMS()
	cms.creditErr = errors.New("500 from CMS")
	svc := &publish.Service{Poster: cms, Images: &fakeImages{path: "/tmp/featured-1.jpg"}}
	req := imageRequest()

	post, err := svc.Publish(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, entity.ImageAttached, post.ImageStatus, "credit failure cannot demote the attach")
	assert.Equal(t, req.FeaturedImageURL, post.FeaturedImageURL)
	assert.Equal(t, entity.StepFailed, post.StepOutcome(entity.StepCredit).Status)
}

func TestPublish_AltTextWithoutPhotographerName(t *testing.T) {
	cms := newFakeCMS()
	svc := &publish.Service{Poster: cms, Images: &fakeImages{path: "/tmp/featured-1.jpg"}}
	req := imageRequest()
	req.PhotographerName = ""

	_, err := svc.Publish(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, req.FeaturedImageURL, cms.altText, "alt text falls back to the bare URL")
}

func TestPublish_PhotographerFieldsVerbatim(t *testing.T) {
	cms := newFakeCMS()
	svc := &publish.Service{Poster: cms, Images: &fakeImages{path: "/tmp/featured-1.jpg"}}
	req := imageRequest()
	req.PhotographerName = "A & B <Studio>"

	_, err := svc.Publish(context.Background(), req)

	require.NoError(t, err)
	assert.Contains(t, cms.creditContent, `>A & B <Studio></a>`, "credit inserts photographer fields without escaping")
}

/* ───────── Notifications ───────── */

func TestPublish_NotifierReceivesReview(t *testing.T) {
	cms := newFakeCMS()
	notifier := &fakeNotifier{}
	svc := &publish.Service{Poster: cms, Images: &fakeImages{}, Notifier: notifier}

	_, err := svc.Publish(context.Background(), entity.PublishRequest{
		Title:   "Draft title",
		Content: "<p>body</p>",
		Status:  "draft",
	})

	require.NoError(t, err)
	require.Len(t, notifier.reviews, 1)
	review := notifier.reviews[0]
	assert.Equal(t, "Draft title", review.Title)
	assert.Equal(t, int64(42), review.PostID)
	assert.Equal(t, "https://blog.example.com/wp-admin/post.php?post=42&action=edit", review.EditLink)
}

func TestPublish_NotifierSkippedOnCreateFailure(t *testing.T) {
	cms := newFakeCMS()
	cms.createErr = errors.New("boom")
	notifier := &fakeNotifier{}
	svc := &publish.Service{Poster: cms, Images: &fakeImages{}, Notifier: notifier}

	_, err := svc.Publish(context.Background(), imageRequest())

	require.Error(t, err)
	assert.Empty(t, notifier.reviews)
}

func TestPublish_NoNotifierConfigured(t *testing.T) {
	cms := newFakeCMS()
	svc := &publish.Service{Poster: cms, Images: &fakeImages{}}

	assert.NotPanics(t, func() {
		_, err := svc.Publish(context.Background(), entity.PublishRequest{
			Title: "t", Content: "c", Status: "draft",
		})
		require.NoError(t, err)
	})
}

/* ───────── Content rendering ───────── */

// fakeExcerptCMS also accepts an excerpt on create, like the real client.
type fakeExcerptCMS struct {
	fakeCMS
	createdExcerpt string
}

func (f *fakeExcerptCMS) CreatePostWithExcerpt(ctx context.Context, title, content, status, excerpt string) (int64, error) {
	f.createdExcerpt = excerpt
	return f.CreatePost(ctx, title, content, status)
}

func TestPublish_RendererConvertsMarkdown(t *testing.T) {
	cms := &fakeExcerptCMS{fakeCMS: *newFakeCMS()}
	svc := &publish.Service{
		Poster:   cms,
		Images:   &fakeImages{},
		Renderer: publish.NewContentRenderer(),
	}

	_, err := svc.Publish(context.Background(), entity.PublishRequest{
		Title:   "Markdown post",
		Content: "# Heading\n\nSome **bold** text.",
		Status:  "draft",
	})

	require.NoError(t, err)
	assert.Contains(t, cms.createdContent, "<h1")
	assert.Contains(t, cms.createdContent, "<strong>bold</strong>")
	assert.Equal(t, "Heading Some bold text.", cms.createdExcerpt)
}

func TestPublish_NoRendererPassesContentThrough(t *testing.T) {
	cms := newFakeCMS()
	svc := &publish.Service{Poster: cms, Images: &fakeImages{}}
	raw := "# Not markdown, just text"

	_, err := svc.Publish(context.Background(), entity.PublishRequest{
		Title: "t", Content: raw, Status: "draft",
	})

	require.NoError(t, err)
	assert.Equal(t, raw, cms.createdContent)
}
