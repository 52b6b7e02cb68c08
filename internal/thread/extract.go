package thread

import (
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

var (
	imgTagPattern = regexp.MustCompile(`(?i)<img[^>]*\bsrc\s*=\s*['"]([^'"]+)['"][^>]*>`)
	htmlTag       = regexp.MustCompile(`<[^>]+>`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Extract turns one raw conversation part into a single displayable
// content string. ok=false means the part carries no user-visible
// content and must be dropped from the thread entirely, never rendered
// as a placeholder. Pure function of its input; malformed fields degrade
// to the most specific applicable fallback.
func Extract(part domain.RawPart) (string, bool) {
	if isSystemPart(part.PartType) {
		return "", false
	}

	if body := bodyText(part.Body); body != "" {
		// Image sources are lost once tags are stripped, so the
		// inline-image path takes priority over plain-text cleanup.
		if links := extractImageLinks(body); len(links) > 0 {
			return strings.Join(links, " | "), true
		}
		if cleaned := CleanHTML(body); cleaned != "" {
			return cleaned, true
		}
	}

	if len(part.Attachments) > 0 {
		tokens := make([]string, 0, len(part.Attachments))
		for _, att := range part.Attachments {
			tokens = append(tokens, formatAttachment(att))
		}
		return strings.Join(tokens, " | "), true
	}

	switch part.PartType {
	case domain.PartTypeComment:
		return "[Comment]", true
	case domain.PartTypeAssignment:
		return "[Conversation assigned]", true
	case domain.PartTypeClose:
		return "[Conversation closed]", true
	case domain.PartTypeOpen:
		return "[Conversation opened]", true
	default:
		return "", false
	}
}

func isSystemPart(pt domain.PartType) bool {
	switch pt {
	case domain.PartTypeLanguageDetection,
		domain.PartTypeAttributeUpdatedByAdmin,
		domain.PartTypeAttributeUpdatedByWkflow,
		domain.PartTypeDefaultAssignment:
		return true
	}
	return false
}

// bodyText normalizes the nullable body field. Intercom occasionally
// delivers the literal string "None" for empty bodies.
func bodyText(body *string) string {
	if body == nil {
		return ""
	}
	trimmed := strings.TrimSpace(*body)
	if trimmed == "" || trimmed == "None" {
		return ""
	}
	return trimmed
}

// extractImageLinks renders every inline image as a clickable markdown
// token. The raw src attribute is kept verbatim as the link target so
// signed CDN URLs survive.
func extractImageLinks(body string) []string {
	matches := imgTagPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		src := m[1]
		links = append(links, fmt.Sprintf("📷 [%s](%s)", imageLabel(src), src))
	}
	return links
}

// imageLabel derives a human-readable label from an image URL: query
// string stripped, underscores and dashes become spaces, title-cased.
func imageLabel(src string) string {
	withoutQuery := src
	if i := strings.IndexByte(withoutQuery, '?'); i >= 0 {
		withoutQuery = withoutQuery[:i]
	}
	name := path.Base(withoutQuery)
	if name == "" || name == "." || name == "/" || !strings.Contains(name, ".") {
		return "Image"
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return titleCase(name)
}

// titleCase capitalizes every letter that follows a non-letter and
// lowercases the rest, matching how the labels have always rendered
// (e.g. "screenshot 1.png" -> "Screenshot 1.Png").
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

// CleanHTML strips markup tags, decodes entities and collapses
// whitespace runs to single spaces.
func CleanHTML(s string) string {
	s = htmlTag.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = html.UnescapeString(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func formatAttachment(att domain.Attachment) string {
	switch att.Type {
	case "image":
		if att.URL != "" {
			return fmt.Sprintf("📷 [%s](%s)", att.Name, att.URL)
		}
		return "📷 " + att.Name
	case "file":
		return fmt.Sprintf("📎 %s (%s)", att.Name, humanSize(att.Size))
	default:
		return "📎 " + att.Name
	}
}

func humanSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%d KB", size/1024)
	default:
		return fmt.Sprintf("%d MB", size/(1024*1024))
	}
}
