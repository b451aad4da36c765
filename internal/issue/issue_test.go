// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	t.Parallel()

	if ManifestParseErrorId != 1 {
		t.Errorf("ManifestParseErrorId = %d, want 1", ManifestParseErrorId)
	}
	if BuildFailedId != Id(len(issues)) {
		t.Errorf("every id needs an issue: %d ids, %d issues", BuildFailedId, len(issues))
	}
}

func TestValues_OrderedAndComplete(t *testing.T) {
	t.Parallel()

	vals := Values()
	if len(vals) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(vals), len(issues))
	}
	for i, v := range vals {
		if v.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d", i, v.Id())
		}
		if strings.TrimSpace(string(v.MarkdownMsg())) == "" {
			t.Errorf("issue %d has no message", v.Id())
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	i := Get(DependencyCycleId)
	if i == nil {
		t.Fatal("Get(DependencyCycleId) returned nil")
	}
	if !strings.Contains(string(i.MarkdownMsg()), "cycle") {
		t.Errorf("unexpected message: %s", i.MarkdownMsg())
	}
	if Get(Id(999)) != nil {
		t.Error("Get(unknown) should return nil")
	}
}

func TestIssue_ExtLinksAreCopied(t *testing.T) {
	t.Parallel()

	i := Get(RevisionNotFoundId)
	links := i.ExtLinks()
	if len(links) == 0 {
		t.Fatal("expected external links")
	}
	links[0] = "mutated"
	if i.ExtLinks()[0] == "mutated" {
		t.Error("ExtLinks() must return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	out, err := Get(RevisionNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"revision could not be resolved", "See also", "git-scm.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
}
