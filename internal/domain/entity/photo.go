package entity

// PhotoCandidate represents one stock photo pick with its attribution.
// It is returned by the photo lookup and echoed back unchanged by the
// client inside a publish request; the service never stores it.
type PhotoCandidate struct {
	ImageURL         string
	PhotographerName string
	PhotographerLink string
}
