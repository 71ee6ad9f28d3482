// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestCatalog_Complete(t *testing.T) {
	t.Parallel()

	names := make(map[string]Id)
	for _, is := range Values() {
		if is.Name() == "" {
			t.Errorf("issue %d has no name", is.Id())
		}
		if prev, dup := names[is.Name()]; dup {
			t.Errorf("issues %d and %d share the name %q", prev, is.Id(), is.Name())
		}
		names[is.Name()] = is.Id()

		if len(is.DocLinks()) == 0 {
			t.Errorf("issue %q has no doc links", is.Name())
		}
		if is.Title() == is.Name() {
			t.Errorf("issue %q has no markdown heading", is.Name())
		}
		if Get(is.Id()) != is || Lookup(is.Name()) != is {
			t.Errorf("issue %q is not reachable by id and name", is.Name())
		}
	}
	if len(names) != int(PermissionDeniedId) {
		t.Errorf("catalog has %d issues, want %d", len(names), PermissionDeniedId)
	}
}

func TestValues_OrderedByID(t *testing.T) {
	t.Parallel()

	values := Values()
	for i := 1; i < len(values); i++ {
		if values[i-1].Id() >= values[i].Id() {
			t.Fatalf("Values() not ordered: %d before %d", values[i-1].Id(), values[i].Id())
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()

	if got := Lookup("no-such-issue"); got != nil {
		t.Errorf("Lookup() = %v, want nil", got)
	}
	if got := Get(0); got != nil {
		t.Errorf("Get(0) = %v, want nil", got)
	}
}

func TestIssue_Markdown(t *testing.T) {
	t.Parallel()

	is := Get(CorruptedStreamId)
	md := is.Markdown()
	if !strings.HasPrefix(md, string(is.MarkdownMsg())) {
		t.Error("Markdown() does not start with the message")
	}
	if !strings.Contains(md, "## See also") || !strings.Contains(md, "- "+string(is.DocLinks()[0])) {
		t.Errorf("Markdown() is missing the links section:\n%s", md)
	}
	if got := is.Title(); got != "The exec output stream is corrupted!" {
		t.Errorf("Title() = %q", got)
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	t.Parallel()

	is := Get(EngineNotAvailableId)
	links := is.DocLinks()
	links[0] = "changed"
	if is.DocLinks()[0] == "changed" {
		t.Error("DocLinks() exposes the internal slice")
	}
}

// Not parallel: swaps the package-level renderer.
func TestIssue_Render(t *testing.T) {
	orig := render
	t.Cleanup(func() { render = orig })

	var gotIn, gotStyle string
	render = func(in, stylePath string) (string, error) {
		gotIn, gotStyle = in, stylePath
		return "rendered", nil
	}

	is := Get(ContainerNotRunningId)
	out, err := is.Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "rendered" || gotStyle != "notty" || gotIn != is.Markdown() {
		t.Errorf("Render() passed (%q, %q), returned %q", gotIn, gotStyle, out)
	}
}

func TestIssue_RenderGlamour(t *testing.T) {
	t.Parallel()

	out, err := Get(EmptyCommandId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "execstream run web") {
		t.Errorf("rendered output is missing the example:\n%s", out)
	}
}
