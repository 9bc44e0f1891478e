package services

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"spotiscience/internal/models"
)

// ResourceType is the kind of object a share-link points at
type ResourceType string

const (
	ResourceTrack    ResourceType = "track"
	ResourceAlbum    ResourceType = "album"
	ResourceArtist   ResourceType = "artist"
	ResourcePlaylist ResourceType = "playlist"
)

// URLPattern represents a share-link pattern
type URLPattern struct {
	Regex       *regexp.Regexp
	TypeIndex   int      // capture group holding the resource type
	IDIndex     int      // capture group holding the identifier
	Description string   // Human-readable description of the pattern
	Examples    []string // Example links this pattern should match
}

// URLPatternRegistry holds the share-link patterns tried in order
type URLPatternRegistry struct {
	patterns []URLPattern
	mu       sync.RWMutex
}

// ShareLinkPattern captures the identifier between the resource-type
// segment and the "?si" tracking marker.
var ShareLinkPattern = URLPattern{
	Regex:       regexp.MustCompile(`(playlist|artist|track|album)/(.*)\?si`),
	TypeIndex:   1,
	IDIndex:     2,
	Description: "Spotify share links copied from the desktop or mobile apps",
	Examples: []string{
		"https://open.spotify.com/track/4MRJvEFvgob7I20cj5WEbE?si=10700e68342840f6",
		"https://open.spotify.com/album/1A2GTWGtFfWp7KSQTwWOyo?si=d4a4ab8ae7b14e09",
		"https://open.spotify.com/artist/0oSGxfWSnnOXhD2fKuz2Gy?si=6b1d2a1b3c7d4e5f",
		"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=1a2b3c4d5e6f7a8b",
	},
}

var patternRegistry = &URLPatternRegistry{patterns: []URLPattern{ShareLinkPattern}}

// RegisterURLPattern adds a pattern after validating it against its examples
func (r *URLPatternRegistry) RegisterURLPattern(pattern URLPattern) error {
	if err := ValidatePattern(pattern); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
	return nil
}

// GetPatterns returns a copy of all registered patterns
func (r *URLPatternRegistry) GetPatterns() []URLPattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patterns := make([]URLPattern, len(r.patterns))
	copy(patterns, r.patterns)
	return patterns
}

// ValidatePattern tests a pattern against its example links
func ValidatePattern(pattern URLPattern) error {
	if pattern.Regex == nil {
		return fmt.Errorf("regex cannot be nil")
	}
	if pattern.TypeIndex < 1 || pattern.IDIndex < 1 {
		return fmt.Errorf("capture group indices must be >= 1")
	}
	for _, example := range pattern.Examples {
		matches := pattern.Regex.FindStringSubmatch(example)
		if len(matches) <= max(pattern.TypeIndex, pattern.IDIndex) || matches[pattern.IDIndex] == "" {
			return fmt.Errorf("pattern failed to match example link: %s", example)
		}
	}
	return nil
}

// RegisterURLPattern registers an additional share-link pattern globally
func RegisterURLPattern(pattern URLPattern) error {
	return patternRegistry.RegisterURLPattern(pattern)
}

// ParseShareLink extracts the resource type and identifier from a share-link.
func ParseShareLink(link string) (ResourceType, string, error) {
	for _, pattern := range patternRegistry.GetPatterns() {
		matches := pattern.Regex.FindStringSubmatch(link)
		if len(matches) <= max(pattern.TypeIndex, pattern.IDIndex) || matches[pattern.IDIndex] == "" {
			continue
		}
		return ResourceType(matches[pattern.TypeIndex]), matches[pattern.IDIndex], nil
	}
	return "", "", fmt.Errorf("share link %q: %w", link, models.ErrUnrecognizedIdentifier)
}

// ResolveID accepts either a bare platform id or a share-link and returns the id.
func ResolveID(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("empty identifier: %w", models.ErrUnrecognizedIdentifier)
	}
	if !strings.Contains(value, "https") {
		return value, nil
	}
	_, id, err := ParseShareLink(value)
	return id, err
}

// Identifier is either a single id or link, or a list of them
type Identifier struct {
	values []string
	many   bool
}

// Single wraps one id or share-link
func Single(value string) Identifier {
	return Identifier{values: []string{value}}
}

// Many wraps a list of ids or share-links
func Many(values ...string) Identifier {
	return Identifier{values: append([]string(nil), values...), many: true}
}

// IsMany reports whether the identifier was built from a list
func (i Identifier) IsMany() bool {
	return i.many
}

// IDs returns the raw ids or links
func (i Identifier) IDs() []string {
	return append([]string(nil), i.values...)
}

// Resolve resolves every value to a bare id. The first unrecognized value fails
// the whole identifier.
func (i Identifier) Resolve() ([]string, error) {
	if len(i.values) == 0 {
		return nil, fmt.Errorf("no identifiers given: %w", models.ErrUnrecognizedIdentifier)
	}
	ids := make([]string, 0, len(i.values))
	for _, value := range i.values {
		id, err := ResolveID(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
