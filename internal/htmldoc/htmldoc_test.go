package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const descHTML = `<!DOCTYPE html>
<html><head><title>Task Tracker</title><script>var x = 1;</script></head>
<body>
<h1>Task Tracker</h1>
<h2>Goals</h2>
<p>A CLI tool for tracking daily tasks.</p>
<ul><li>Add and complete tasks</li><li>Persist state to disk</li></ul>
</body></html>`

func TestParseDescription(t *testing.T) {
	doc := ParseDescription([]byte(descHTML))

	assert.Equal(t, "Task Tracker", doc.Title)
	assert.Equal(t, []string{"Task Tracker", "Goals"}, doc.Headers)
	assert.Contains(t, doc.Content, "A CLI tool for tracking daily tasks.")
	assert.Contains(t, doc.Content, "Persist state to disk")
	assert.NotContains(t, doc.Content, "var x = 1")
}

func TestParseDescription_PlainText(t *testing.T) {
	doc := ParseDescription([]byte("Just a short\ndescription."))

	assert.Empty(t, doc.Title)
	assert.Empty(t, doc.Headers)
	assert.Equal(t, "Just a short description.", doc.Content)
}

func TestParseDescription_TitleFromH1(t *testing.T) {
	src := `<html><body><h1>Demo project</h1><p>A demo.</p></body></html>`

	doc := ParseDescription([]byte(src))

	assert.Equal(t, "Demo project", doc.Title)
	assert.Equal(t, []string{"Demo project"}, doc.Headers)
}

func TestParseDescription_TitleFromMarkdownHeading(t *testing.T) {
	src := "# Hello service\n\nSays hello.\n\n## Usage\n"

	doc := ParseDescription([]byte(src))

	assert.Equal(t, "Hello service", doc.Title)
}

func TestParseDescription_TitleElementWins(t *testing.T) {
	src := `<html><head><title>From title</title></head><body><h1>From h1</h1></body></html>`

	doc := ParseDescription([]byte(src))

	assert.Equal(t, "From title", doc.Title)
}

func TestParseChecklist(t *testing.T) {
	src := `<html><head><title>Checklist</title></head><body>
<ol>
<li>README present</li>
<li>Tests cover the core logic</li>
<li>No secrets in the repository</li>
</ol></body></html>`

	check := ParseChecklist([]byte(src))

	assert.Equal(t, "Checklist", check.Title)
	assert.Equal(t, []string{
		"README present",
		"Tests cover the core logic",
		"No secrets in the repository",
	}, check.Items)
}

func TestParseChecklist_PlainTextFallback(t *testing.T) {
	src := "- README present\n- Tests exist\n\n* No debug prints\n"

	check := ParseChecklist([]byte(src))

	assert.Equal(t, []string{"README present", "Tests exist", "No debug prints"}, check.Items)
}

func TestParseChecklist_Paragraphs(t *testing.T) {
	src := `<html><body><p>README present</p><p>Tests exist</p></body></html>`

	check := ParseChecklist([]byte(src))

	assert.Equal(t, []string{"README present", "Tests exist"}, check.Items)
}

func TestParseDescription_NestedMarkup(t *testing.T) {
	src := `<html><body><p>Uses <b>Go</b> and <code>sqlite</code>.</p></body></html>`

	doc := ParseDescription([]byte(src))

	assert.Equal(t, "Uses Go and sqlite .", doc.Content)
}
