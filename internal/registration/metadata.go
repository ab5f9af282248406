package registration

import (
	"mime"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MetadataVersion identifies the envelope layout. Bump when required fields
// change meaning.
const MetadataVersion = "1"

// CreatorShare names one creator and their contribution split.
type CreatorShare struct {
	Name                string `json:"name"`
	Address             string `json:"address"`
	ContributionPercent int    `json:"contributionPercent"`
}

// MediaRef points at a stored media binary.
type MediaRef struct {
	Name        string `json:"name,omitempty"`
	URL         string `json:"url"`
	ContentHash string `json:"hash,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// IPMetadata is the typed envelope describing the work itself. Unknown
// producer-specific fields ride in Extensions rather than loosening the
// schema.
type IPMetadata struct {
	Version     string            `json:"version"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Creators    []CreatorShare    `json:"creators"`
	Media       []MediaRef        `json:"media,omitempty"`
	Extensions  map[string]string `json:"extensions,omitempty"`
}

// NFTMetadata is the typed envelope attached to the minted token.
type NFTMetadata struct {
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Image       string            `json:"image,omitempty"`
	MediaURL    string            `json:"animation_url,omitempty"`
	Extensions  map[string]string `json:"extensions,omitempty"`
}

// Audio extensions the host mime database frequently lacks.
var audioMIMETypes = map[string]string{
	".aac":  "audio/aac",
	".aiff": "audio/aiff",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
}

// MIMEForPath resolves the media MIME type from the filename extension,
// falling back to application/octet-stream when unknown.
func MIMEForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := audioMIMETypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// DisplayTitle normalizes a raw title for presentation: trimmed, collapsed
// whitespace, title-cased without lowering already-capitalized words.
func DisplayTitle(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return titleCaser.String(strings.Join(fields, " "))
}
