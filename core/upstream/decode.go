package upstream

import "catalog-manager/core/utils"

// The provider wraps responses inconsistently across endpoints: bare
// objects, {"data": {...}}, {"items": [...]}, {"albums": {"items":
// [...]}}. The helpers below collapse every shape once, at this
// boundary; callers only ever see the typed projections.

// unwrapObject returns the first nested object found under the given
// field names, or the payload itself when none match.
func unwrapObject(payload map[string]any, names ...string) map[string]any {
	for _, name := range names {
		if obj, ok := payload[name].(map[string]any); ok {
			return obj
		}
	}
	return payload
}

// unwrapList returns the first array found under the given field
// names, descending one level into wrapper objects holding an "items"
// array.
func unwrapList(payload map[string]any, names ...string) []any {
	for _, name := range names {
		switch v := payload[name].(type) {
		case []any:
			return v
		case map[string]any:
			if items, ok := v["items"].([]any); ok {
				return items
			}
		}
	}
	return nil
}

// strField returns the first non-empty string value among the given
// field names.
func strField(obj map[string]any, names ...string) string {
	for _, name := range names {
		if v, ok := obj[name]; ok {
			if s := utils.ToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// intField returns the first present numeric value among the given
// field names.
func intField(obj map[string]any, names ...string) int {
	for _, name := range names {
		if v, ok := obj[name]; ok {
			return utils.ToInt(v)
		}
	}
	return 0
}

// idList extracts entity IDs from either a plain ID array or an array
// of objects carrying an "id" field.
func idList(obj map[string]any, names ...string) []string {
	for _, name := range names {
		arr, ok := obj[name].([]any)
		if !ok {
			continue
		}
		ids := make([]string, 0, len(arr))
		for _, item := range arr {
			switch v := item.(type) {
			case map[string]any:
				if id := strField(v, "id"); id != "" {
					ids = append(ids, id)
				}
			default:
				if id := utils.ToString(v); id != "" {
					ids = append(ids, id)
				}
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// firstImageURL digs the primary image URL out of either a flat field
// or an images array of {url} objects.
func firstImageURL(obj map[string]any) string {
	if s := strField(obj, "image_url", "artwork_url", "cover_url"); s != "" {
		return s
	}
	if images, ok := obj["images"].([]any); ok && len(images) > 0 {
		if img, ok := images[0].(map[string]any); ok {
			return strField(img, "url")
		}
	}
	return ""
}

func decodeTrack(obj map[string]any) *Track {
	track := &Track{
		ID:         strField(obj, "id"),
		Title:      strField(obj, "title", "name"),
		ArtistID:   strField(obj, "artist_id"),
		AlbumID:    strField(obj, "album_id"),
		DurationMS: intField(obj, "duration_ms", "duration"),
		ISRC:       strField(obj, "isrc"),
		Explicit:   utils.ToBool(obj["explicit"]),
	}

	if track.ArtistID == "" {
		if ids := idList(obj, "artists"); len(ids) > 0 {
			track.ArtistID = ids[0]
		}
	}
	if track.AlbumID == "" {
		if album, ok := obj["album"].(map[string]any); ok {
			track.AlbumID = strField(album, "id")
		}
	}
	if track.ISRC == "" {
		if ext, ok := obj["external_ids"].(map[string]any); ok {
			track.ISRC = strField(ext, "isrc")
		}
	}
	return track
}

func decodeArtist(obj map[string]any) *Artist {
	artist := &Artist{
		ID:       strField(obj, "id"),
		Name:     strField(obj, "name"),
		Bio:      strField(obj, "bio", "description"),
		ImageURL: firstImageURL(obj),
		LabelRef: strField(obj, "label", "label_name", "label_ref"),
	}

	if genres, ok := obj["genres"].([]any); ok {
		for _, g := range genres {
			if s := utils.ToString(g); s != "" {
				artist.Genres = append(artist.Genres, s)
			}
		}
	}
	return artist
}

func decodeAlbum(obj map[string]any) *Album {
	album := &Album{
		ID:          strField(obj, "id"),
		Title:       strField(obj, "title", "name"),
		ArtistIDs:   idList(obj, "artist_ids", "artists"),
		LabelRef:    strField(obj, "label", "label_name", "label_ref"),
		ReleaseDate: strField(obj, "release_date", "released_at"),
		TotalTracks: intField(obj, "total_tracks", "track_count"),
		ArtworkURL:  firstImageURL(obj),
	}
	return album
}
