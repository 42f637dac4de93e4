// Package entity defines the core domain entities and validation logic for the application.
// It contains the transient pipeline values such as PublishRequest and PhotoCandidate,
// along with their validation rules and domain-specific errors.
package entity

// PublishRequest carries everything needed to create a post on the
// content-management system, plus the optional featured-image data the
// client obtained from a prior photo lookup.
//
// Status is an open string handed to the CMS verbatim ("draft",
// "publish", ...); the service does not enumerate allowed values.
type PublishRequest struct {
	Title            string
	Content          string
	Status           string
	FeaturedImageURL string
	PhotographerName string
	PhotographerLink string
}

// Validate checks the request fields that the service itself depends on.
// CMS-side constraints (status vocabulary, content size) are left to the CMS.
func (r *PublishRequest) Validate() error {
	if r.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if r.Content == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if r.Status == "" {
		return &ValidationError{Field: "status", Message: "status is required"}
	}
	if r.FeaturedImageURL != "" {
		if err := ValidateURL(r.FeaturedImageURL); err != nil {
			return err
		}
	}
	return nil
}

// HasImage reports whether the request asks for the featured-image workflow.
func (r *PublishRequest) HasImage() bool {
	return r.FeaturedImageURL != ""
}

// ImageAttachmentStatus classifies the outcome of the featured-image
// sub-workflow for a published post. It resolves the ambiguity between
// "no image requested" and "image requested but a required step failed".
type ImageAttachmentStatus string

const (
	// ImageNone means the publish request carried no featured-image URL.
	ImageNone ImageAttachmentStatus = "none"
	// ImageAttached means the media was attached as the post's featured
	// image. The credit append may still have failed afterwards.
	ImageAttached ImageAttachmentStatus = "attached"
	// ImageFailed means an image was requested but download, upload or
	// attach failed, so the post has no featured image.
	ImageFailed ImageAttachmentStatus = "failed"
)

// PublishedPost is the result of a publish call. PostID is assigned by the
// CMS. FeaturedImageURL echoes the requested image URL only when the attach
// step succeeded.
type PublishedPost struct {
	PostID           int64
	FeaturedImageURL string
	ImageStatus      ImageAttachmentStatus
	Steps            []StepResult
}

// ImageStep identifies one step of the featured-image sub-workflow.
type ImageStep string

const (
	StepDownload ImageStep = "download"
	StepUpload   ImageStep = "upload"
	StepAltText  ImageStep = "alt_text"
	StepAttach   ImageStep = "attach"
	StepCredit   ImageStep = "credit"
)

// StepStatus is the outcome of a single image step.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// StepResult records what happened to one image step, so callers and tests
// can see exactly where the workflow degraded. Reason is set on failure.
type StepResult struct {
	Step   ImageStep
	Status StepStatus
	Reason string
}

// StepOutcome returns the recorded result for the given step, or a skipped
// result when the step was never reached.
func (p *PublishedPost) StepOutcome(step ImageStep) StepResult {
	for _, s := range p.Steps {
		if s.Step == step {
			return s
		}
	}
	return StepResult{Step: step, Status: StepSkipped}
}
