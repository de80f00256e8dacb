package domain

// Review holds the user's rating, prose review, private notes, and saved
// highlights for a book. At most one per book. Text and Notes map to the
// "# Review" and "# Private Notes" sections of the markdown file;
// Highlights map to the "# Highlights" bullet list.
type Review struct {
	// Rating is 1-5 stars; nil means not rated.
	Rating     *int     `json:"rating,omitempty"`
	Text       string   `json:"text,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
	IsSpoiler  bool     `json:"is_spoiler,omitempty"`
}

// IsEmpty reports whether the review carries no content at all.
// Empty reviews are not written as sub-records.
func (r *Review) IsEmpty() bool {
	return r == nil || (r.Rating == nil && r.Text == "" && r.Notes == "" &&
		len(r.Highlights) == 0 && !r.IsSpoiler)
}
