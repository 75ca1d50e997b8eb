package constants

import "strings"

// PostType classifies the kind of short-form post behind a source URL.
type PostType string

const (
	PostTypePost PostType = "post"
	PostTypeReel PostType = "reel"
	PostTypeTV   PostType = "tv"
)

// SupportedHosts holds the source-platform hosts we accept URLs from.
var SupportedHosts = map[string]struct{}{
	"instagram.com":     {},
	"www.instagram.com": {},
	"m.instagram.com":   {},
}

// MapPathToPostType resolves a URL path to a supported post type.
// Returns false for profile pages, stories, and anything else we
// cannot extract a recipe from.
func MapPathToPostType(path string) (PostType, bool) {
	switch {
	case strings.Contains(path, "/reel/"):
		return PostTypeReel, true
	case strings.Contains(path, "/p/"):
		return PostTypePost, true
	case strings.Contains(path, "/tv/"):
		return PostTypeTV, true
	default:
		return "", false
	}
}
