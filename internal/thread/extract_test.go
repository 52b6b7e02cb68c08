package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestExtractCleansHTMLBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain paragraph", "<p>Hello world</p>", "Hello world"},
		{"nested markup", "<p>Hello <b>bold</b> and <i>italic</i></p>", "Hello bold and italic"},
		{"entities decoded", "5 &gt; 3 &amp;&amp; 2 &lt; 4", "5 > 3 && 2 < 4"},
		{"numeric entity", "caf&#233; time", "café time"},
		{"whitespace collapsed", "  multiple\n\n   spaces\there  ", "multiple spaces here"},
		{"tags become separators", "<div>first</div><div>second</div>", "first second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, ok := Extract(domain.RawPart{
				PartType: domain.PartTypeComment,
				Body:     strPtr(tt.body),
			})
			require.True(t, ok)
			assert.Equal(t, tt.want, content)
		})
	}
}

func TestExtractInlineImages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"single image",
			`<img src="https://example.com/screenshot.png">`,
			"📷 [Screenshot.Png](https://example.com/screenshot.png)",
		},
		{
			"underscore and digit in name",
			`<img src="https://example.com/Screenshot_1.png">`,
			"📷 [Screenshot 1.Png](https://example.com/Screenshot_1.png)",
		},
		{
			"dashes become spaces",
			`<img src="https://example.com/test-image.jpg">`,
			"📷 [Test Image.Jpg](https://example.com/test-image.jpg)",
		},
		{
			"query string stripped from label but kept in url",
			`<img src="https://cdn.example.com/photo.png?sig=abc&amp;expires=123">`,
			"📷 [Photo.Png](https://cdn.example.com/photo.png?sig=abc&amp;expires=123)",
		},
		{
			"no file extension",
			`<img src="https://example.com/raw">`,
			"📷 [Image](https://example.com/raw)",
		},
		{
			"multiple images joined",
			`<p>see</p><img src='https://a.test/one.png'><img src='https://a.test/two.png'>`,
			"📷 [One.Png](https://a.test/one.png) | 📷 [Two.Png](https://a.test/two.png)",
		},
		{
			"single quoted src with extra attributes",
			`<img width="40" src='https://example.com/pic.gif' alt="x">`,
			"📷 [Pic.Gif](https://example.com/pic.gif)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, ok := Extract(domain.RawPart{
				PartType: domain.PartTypeComment,
				Body:     strPtr(tt.body),
			})
			require.True(t, ok)
			assert.Equal(t, tt.want, content)
		})
	}
}

func TestExtractAttachments(t *testing.T) {
	t.Run("image attachment with url", func(t *testing.T) {
		content, ok := Extract(domain.RawPart{
			PartType: domain.PartTypeComment,
			Attachments: []domain.Attachment{
				{Type: "image", Name: "photo.png", URL: "https://example.com/photo.png"},
			},
		})
		require.True(t, ok)
		assert.Equal(t, "📷 [photo.png](https://example.com/photo.png)", content)
	})

	t.Run("file attachment sizes", func(t *testing.T) {
		content, ok := Extract(domain.RawPart{
			PartType: domain.PartTypeComment,
			Attachments: []domain.Attachment{
				{Type: "file", Name: "small.txt", Size: 512},
				{Type: "file", Name: "medium.pdf", Size: 2048},
				{Type: "file", Name: "large.zip", Size: 5 * 1024 * 1024},
			},
		})
		require.True(t, ok)
		assert.Equal(t, "📎 small.txt (512 B) | 📎 medium.pdf (2 KB) | 📎 large.zip (5 MB)", content)
	})

	t.Run("unknown attachment type", func(t *testing.T) {
		content, ok := Extract(domain.RawPart{
			PartType:    domain.PartTypeComment,
			Attachments: []domain.Attachment{{Type: "video", Name: "clip.mp4"}},
		})
		require.True(t, ok)
		assert.Equal(t, "📎 clip.mp4", content)
	})

	t.Run("body takes priority over attachments", func(t *testing.T) {
		content, ok := Extract(domain.RawPart{
			PartType:    domain.PartTypeComment,
			Body:        strPtr("<p>look at this</p>"),
			Attachments: []domain.Attachment{{Type: "file", Name: "f.txt", Size: 10}},
		})
		require.True(t, ok)
		assert.Equal(t, "look at this", content)
	})
}

func TestExtractFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		partType domain.PartType
		want     string
	}{
		{"comment", domain.PartTypeComment, "[Comment]"},
		{"assignment", domain.PartTypeAssignment, "[Conversation assigned]"},
		{"close", domain.PartTypeClose, "[Conversation closed]"},
		{"open", domain.PartTypeOpen, "[Conversation opened]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, ok := Extract(domain.RawPart{PartType: tt.partType})
			require.True(t, ok)
			assert.Equal(t, tt.want, content)
		})
	}
}

func TestExtractDropsEmptyAndSystemParts(t *testing.T) {
	tests := []struct {
		name string
		part domain.RawPart
	}{
		{"language detection", domain.RawPart{PartType: domain.PartTypeLanguageDetection, Body: strPtr("detected en")}},
		{"attribute updated by admin", domain.RawPart{PartType: domain.PartTypeAttributeUpdatedByAdmin}},
		{"attribute updated by workflow", domain.RawPart{PartType: domain.PartTypeAttributeUpdatedByWkflow}},
		{"default assignment", domain.RawPart{PartType: domain.PartTypeDefaultAssignment}},
		{"unknown type without content", domain.RawPart{PartType: "snoozed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Extract(tt.part)
			assert.False(t, ok)
		})
	}
}

func TestBodyTextNormalization(t *testing.T) {
	assert.Equal(t, "", bodyText(nil))
	assert.Equal(t, "", bodyText(strPtr("")))
	assert.Equal(t, "", bodyText(strPtr("   ")))
	assert.Equal(t, "", bodyText(strPtr("None")))
	assert.Equal(t, "hello", bodyText(strPtr("  hello  ")))
}

func TestLiteralNoneBodyFallsThrough(t *testing.T) {
	content, ok := Extract(domain.RawPart{
		PartType:    domain.PartTypeComment,
		Body:        strPtr("None"),
		Attachments: []domain.Attachment{{Type: "file", Name: "doc.pdf", Size: 1024}},
	})
	require.True(t, ok)
	assert.Equal(t, "📎 doc.pdf (1 KB)", content)
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"screenshot 1.png", "Screenshot 1.Png"},
		{"test image.jpg", "Test Image.Jpg"},
		{"ALREADY UPPER", "Already Upper"},
		{"mixed2case", "Mixed2Case"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, titleCase(tt.in), "titleCase(%q)", tt.in)
	}
}
