package webinars

import (
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxTagsPerWebinar caps the number of tags attached to one webinar.
const MaxTagsPerWebinar = 4

// TagList accepts either a JSON array of names or a single ';'-separated string.
type TagList []string

// UnmarshalJSON implements the array-or-string input shape.
func (t *TagList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*t = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*t = TagList{}
		return nil
	}
	*t = strings.Split(s, ";")
	return nil
}

// TagRef is one tag to connect or create, keyed by its slug.
type TagRef struct {
	Name string
	Slug string
}

var stripAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives the deterministic slug for a tag name: lowercase,
// accents stripped, non-alphanumeric runs collapsed to single hyphens,
// leading/trailing hyphens trimmed.
func Slugify(s string) string {
	folded, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// NormalizeTags trims names, drops empties, and removes exact duplicates,
// preserving first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// BuildTagRefs normalizes names into connect-or-create refs, collapsing
// names that slugify identically ("Droit Bancaire" and "droit-bancaire"
// are the same tag).
func BuildTagRefs(tags []string) []TagRef {
	seen := make(map[string]bool)
	var refs []TagRef
	for _, name := range NormalizeTags(tags) {
		slug := Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		refs = append(refs, TagRef{Name: name, Slug: slug})
	}
	return refs
}
