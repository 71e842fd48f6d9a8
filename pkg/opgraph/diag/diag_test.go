package diag

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestList(t *testing.T) {
	list := NewList()
	if list.ToError() != nil {
		t.Fatal("empty list should not be an error")
	}

	list.Warnf(TypeSemantic, "$.operands[0]", "operand never fails")
	if list.ToError() != nil {
		t.Error("warnings alone should not be an error")
	}

	list.Addf(TypeStructural, "$", "missing tag")
	list.AddWithSuggestion(TypeStructural, "$.operand", `unknown tag "IsAfterDat"`, `did you mean "IsAfterDate"?`)

	if list.Count() != 3 {
		t.Errorf("Count() = %d, want 3", list.Count())
	}
	if len(list.Errors()) != 2 || len(list.Warnings()) != 1 {
		t.Errorf("errors=%d warnings=%d", len(list.Errors()), len(list.Warnings()))
	}
	if !list.HasType(TypeStructural) || list.HasType(TypeIO) {
		t.Error("HasType() mismatch")
	}

	err := list.ToError()
	if err == nil {
		t.Fatal("ToError() should return the list")
	}
	msg := err.Error()
	for _, want := range []string{"found 2 error(s)", "missing tag at $", "did you mean"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestMerge(t *testing.T) {
	inner := NewList()
	inner.Addf(TypeSyntax, "", "unexpected end of input")

	outer := NewList()
	outer.Merge(inner, "trees/limits.json")
	outer.Merge(nil, "ignored")

	if outer.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", outer.Count())
	}
	if got := outer.Items[0].Error(); !strings.HasPrefix(got, "trees/limits.json: ") {
		t.Errorf("merged diagnostic = %q", got)
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"IsAfterDate", "IsBeforeDate", "Max"}
	if got := Suggest("IsAfterDat", candidates); got != `did you mean "IsAfterDate"?` {
		t.Errorf("Suggest() = %q", got)
	}
	if got := Suggest("CompletelyDifferent", candidates); got != "" {
		t.Errorf("Suggest() = %q, want no suggestion", got)
	}
}

func TestFromError(t *testing.T) {
	list := NewList()
	list.Addf(TypeStructural, "$.operand", "operand is required")
	list.Warnf(TypeSemantic, "$.value", "value is missing")

	if got := FromError(fmt.Errorf("load: %w", list)); len(got) != 2 {
		t.Errorf("FromError(list) = %v", got)
	}
	single := &Diagnostic{Type: TypeIO, Severity: SeverityError, Message: "not found"}
	if got := FromError(single); len(got) != 1 || got[0] != single {
		t.Errorf("FromError(diagnostic) = %v", got)
	}
	if got := FromError(errors.New("plain")); got != nil {
		t.Errorf("FromError(plain) = %v", got)
	}
}
