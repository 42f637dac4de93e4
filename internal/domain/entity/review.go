package entity

// DraftReview describes a newly created post awaiting editorial review.
// It is the payload of review notifications. EditLink points at the CMS
// edit screen for the post and may be empty when no site URL is
// configured; Genre is set only for worker-generated drafts.
type DraftReview struct {
	Title    string
	PostID   int64
	EditLink string
	Genre    string
}
