package web

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderEscapesAlert(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	data := struct {
		Form  struct{ Name, Description, ProviderName, Amount, DueDate, Token string }
		Error string
		Alert string
	}{Error: `<b>bad</b>`, Alert: `Error: "quoted"</script>`}

	var buf bytes.Buffer
	if err := r.Render(&buf, PageAddService, data); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>bad</b>") {
		t.Fatalf("error banner must be escaped")
	}
	if strings.Contains(out, `"quoted"</script>`) {
		t.Fatalf("alert text must be escaped for the script context")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	if err := r.Render(&bytes.Buffer{}, "missing", nil); err == nil {
		t.Fatalf("expected error for unknown page")
	}
}
