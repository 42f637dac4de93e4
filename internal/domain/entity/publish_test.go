package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       PublishRequest
		wantErr   bool
		wantField string
	}{
		{
			name: "valid request without image",
			req: PublishRequest{
				Title:   "Ten Hidden Beaches",
				Content: "<p>body</p>",
				Status:  "draft",
			},
			wantErr: false,
		},
		{
			name: "valid request with image and attribution",
			req: PublishRequest{
				Title:            "Ten Hidden Beaches",
				Content:          "<p>body</p>",
				Status:           "publish",
				FeaturedImageURL: "https://images.unsplash.com/photo-1",
				PhotographerName: "Jane Doe",
				PhotographerLink: "https://unsplash.com/@jane",
			},
			wantErr: false,
		},
		{
			name:      "missing title",
			req:       PublishRequest{Content: "body", Status: "draft"},
			wantErr:   true,
			wantField: "title",
		},
		{
			name:      "missing content",
			req:       PublishRequest{Title: "t", Status: "draft"},
			wantErr:   true,
			wantField: "content",
		},
		{
			name:      "missing status",
			req:       PublishRequest{Title: "t", Content: "c"},
			wantErr:   true,
			wantField: "status",
		},
		{
			name: "featured image URL with bad scheme",
			req: PublishRequest{
				Title:            "t",
				Content:          "c",
				Status:           "draft",
				FeaturedImageURL: "ftp://example.com/a.jpg",
			},
			wantErr:   true,
			wantField: "url",
		},
		{
			name: "arbitrary status passes through",
			req: PublishRequest{
				Title:   "t",
				Content: "c",
				Status:  "pending",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			var vErr *ValidationError
			if assert.ErrorAs(t, err, &vErr) {
				assert.Equal(t, tt.wantField, vErr.Field)
			}
		})
	}
}

func TestPublishRequest_HasImage(t *testing.T) {
	req := PublishRequest{Title: "t", Content: "c", Status: "draft"}
	assert.False(t, req.HasImage())

	req.FeaturedImageURL = "https://images.unsplash.com/photo-1"
	assert.True(t, req.HasImage())
}

func TestPublishedPost_StepOutcome(t *testing.T) {
	post := PublishedPost{
		PostID:      42,
		ImageStatus: ImageFailed,
		Steps: []StepResult{
			{Step: StepDownload, Status: StepSuccess},
			{Step: StepUpload, Status: StepFailed, Reason: "server error: status 500"},
		},
	}

	assert.Equal(t, StepSuccess, post.StepOutcome(StepDownload).Status)
	assert.Equal(t, StepFailed, post.StepOutcome(StepUpload).Status)
	assert.Equal(t, "server error: status 500", post.StepOutcome(StepUpload).Reason)

	// Steps never reached report as skipped.
	assert.Equal(t, StepSkipped, post.StepOutcome(StepAttach).Status)
	assert.Equal(t, StepSkipped, post.StepOutcome(StepCredit).Status)
}
