package upstream

// Track is the cached projection of a provider track object.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ArtistID   string `json:"artist_id"`
	AlbumID    string `json:"album_id"`
	DurationMS int    `json:"duration_ms"`
	ISRC       string `json:"isrc,omitempty"`
	Explicit   bool   `json:"explicit"`
}

// Artist is the cached projection of a provider artist object.
type Artist struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Bio      string   `json:"bio,omitempty"`
	Genres   []string `json:"genres,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	// LabelRef is the provider's free-form label field; it is a
	// surface form, never persisted as authoritative.
	LabelRef string `json:"label_ref,omitempty"`
}

// Album is the cached projection of a provider album/release object.
type Album struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ArtistIDs   []string `json:"artist_ids,omitempty"`
	LabelRef    string   `json:"label_ref,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	TotalTracks int      `json:"total_tracks"`
	ArtworkURL  string   `json:"artwork_url,omitempty"`
}
