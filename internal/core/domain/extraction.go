package domain

// Classification is the classifier oracle's verdict on a document's type.
// Confidence here is the oracle's self-report and is never trusted for
// scoring; it only routes documents to review.
type Classification struct {
	Type          DocumentType `json:"type"`
	Confidence    float64      `json:"confidence"`
	Reasoning     string       `json:"reasoning,omitempty"`
	KeyIndicators []string     `json:"key_indicators,omitempty"`
}

// NeedsReview reports whether a classification should route the document to
// a human: the oracle could not place it, or barely could. Advisory only;
// nothing downstream changes behavior on it.
func (c Classification) NeedsReview() bool {
	return c.Type == DocTypeOther || c.Confidence < 0.7
}

// Extraction is the structured output of the extraction oracle for one
// document. Exactly one of Lease or Amendment is set, matching the document
// type the extraction was asked for.
type Extraction struct {
	Lease     *Lease     `json:"lease,omitempty"`
	Amendment *Amendment `json:"amendment,omitempty"`
}
