package narrativeingester

import (
	"strings"
	"testing"
)

func TestExtractHTMLTitle(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "simple title",
			html:     "<html><head><title>The Last Voyage</title></head><body></body></html>",
			expected: "The Last Voyage",
		},
		{
			name:     "title with whitespace",
			html:     "<html><head><title>  Spaced Title  </title></head></html>",
			expected: "Spaced Title",
		},
		{
			name:     "no title",
			html:     "<html><head></head><body>Content</body></html>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractHTMLTitle([]byte(tt.html))
			if got != tt.expected {
				t.Errorf("extractHTMLTitle() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractMarkdownTitle(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		expected string
	}{
		{
			name:     "H1 at start",
			markdown: "# Chapter One\n\nContent here",
			expected: "Chapter One",
		},
		{
			name:     "H1 after text",
			markdown: "Some text\n\n# Title Here\n\nMore content",
			expected: "Title Here",
		},
		{
			name:     "no H1",
			markdown: "## Section\n\nContent",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractMarkdownTitle(tt.markdown)
			if got != tt.expected {
				t.Errorf("extractMarkdownTitle() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "excessive newlines",
			input: "Line 1\n\n\n\n\n\nLine 2",
		},
		{
			name:  "trailing spaces",
			input: "Line with trailing space   \nAnother line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanMarkdown(tt.input)
			// Should not have more than 3 consecutive newlines
			if strings.Contains(got, "\n\n\n\n") {
				t.Error("cleanMarkdown should remove excessive newlines")
			}
			// Should not have trailing spaces
			lines := strings.Split(got, "\n")
			for _, line := range lines {
				if strings.HasSuffix(line, " ") {
					t.Errorf("cleanMarkdown should remove trailing spaces: %q", line)
				}
			}
		})
	}
}

func TestConverter(t *testing.T) {
	converter := NewConverter()

	html := []byte(`<!DOCTYPE html>
<html>
<head><title>The Siege of Kareth</title></head>
<body>
<nav>Navigation</nav>
<main>
<h1>The Siege of Kareth</h1>
<p>The captain held the wall for <strong>nine</strong> days.</p>
<p>On the tenth, the gates opened from within.</p>
</main>
<footer>Footer</footer>
</body>
</html>`)

	result, err := converter.Convert(html, "https://example.com/stories/kareth")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if result.Title != "The Siege of Kareth" {
		t.Errorf("Title = %q, want %q", result.Title, "The Siege of Kareth")
	}

	if !strings.Contains(result.Markdown, "held the wall") {
		t.Error("Markdown should contain the story body")
	}

	if strings.Contains(result.Markdown, "Navigation") {
		t.Error("Markdown should not contain page chrome")
	}
}

func TestConverterFallbackWithoutArticle(t *testing.T) {
	converter := NewConverter()

	// No main/article element and too little text for readability extraction.
	html := []byte(`<html><head><title>Fragment</title></head><body><p>A single line.</p></body></html>`)

	result, err := converter.Convert(html, "https://example.com/fragment")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !strings.Contains(result.Markdown, "A single line.") {
		t.Errorf("Markdown = %q, want body text preserved", result.Markdown)
	}
}
