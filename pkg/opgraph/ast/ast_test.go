package ast

import (
	"errors"
	"strings"
	"testing"
)

func constant(t *testing.T, dt Datatype, v any) *Constant {
	t.Helper()
	c, err := NewConstant(dt, v)
	if err != nil {
		t.Fatalf("NewConstant() error = %v", err)
	}
	return c
}

func TestTagKinds(t *testing.T) {
	tests := []struct {
		tag  Tag
		kind Kind
	}{
		{TagConstant, KindConstant},
		{TagFromAPI, KindFromAPI},
		{TagFromLocal, KindFromLocal},
		{TagMode, KindOperator},
		{TagRootMeanSquare, KindOperator},
		{TagIsAfterDate, KindComparator},
		{TagIsDisjointSet, KindComparator},
		{TagIsValidYearWeek, KindCheck},
		{TagMatches, KindMatch},
		{TagHasAnyRole, KindPolicy},
		{TagNot, KindLogical},
	}
	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			if !tt.tag.IsValid() {
				t.Fatalf("%s should be valid", tt.tag)
			}
			if got := tt.tag.Kind(); got != tt.kind {
				t.Errorf("Kind() = %s, want %s", got, tt.kind)
			}
		})
	}

	if _, err := ParseTag("IsSomethingSomething"); err == nil {
		t.Error("ParseTag() should reject unknown tags")
	}
	if Tag("Nope").Kind() != "" {
		t.Error("unknown tag should have no kind")
	}
}

func TestEveryTagHasAKind(t *testing.T) {
	for _, name := range Tags() {
		if Tag(name).Kind() == "" {
			t.Errorf("tag %s has no kind", name)
		}
	}
}

func TestParseDatatype(t *testing.T) {
	for _, name := range []string{"Boolean", "Integer", "Number", "String", "Date", "Set", "Duration", "YearWeek"} {
		if _, err := ParseDatatype(name); err != nil {
			t.Errorf("ParseDatatype(%q) error = %v", name, err)
		}
	}
	if _, err := ParseDatatype("integer"); err == nil {
		t.Error("datatypes are case sensitive")
	}
}

func TestConstructorsRejectWrongKind(t *testing.T) {
	a := constant(t, DatatypeNumber, 1.0)

	if _, err := NewComparator(TagMax, DatatypeNumber, a, a); !errors.Is(err, ErrWrongKind) {
		t.Errorf("NewComparator(Max) error = %v, want ErrWrongKind", err)
	}
	if _, err := NewOperator("Median of means", DatatypeNumber, a); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("NewOperator(unknown) error = %v, want ErrUnknownTag", err)
	}
	if _, err := NewConstant("Float", 1.0); !errors.Is(err, ErrUnknownDatatype) {
		t.Errorf("NewConstant(Float) error = %v, want ErrUnknownDatatype", err)
	}
	if _, err := NewLogical(TagAnd, a, a); err != nil {
		t.Errorf("NewLogical(And) error = %v", err)
	}
	if _, err := NewFromLocal(DatatypeString, "", false); err == nil {
		t.Error("NewFromLocal() should require a key")
	}
}

func TestDatatypeDefaults(t *testing.T) {
	cmp := &Comparator{Op: TagIsAfterDate}
	if cmp.Datatype() != DatatypeDate {
		t.Errorf("IsAfterDate default datatype = %s", cmp.Datatype())
	}
	op := &Operator{Op: TagMax, Type: DatatypeDate}
	if op.Datatype() != DatatypeDate {
		t.Errorf("declared datatype should win, got %s", op.Datatype())
	}
	if (&Constant{}).Datatype() != DatatypeAny {
		t.Error("constant without datatype should be Any")
	}
	if (&Logical{Op: TagOr}).Datatype() != DatatypeBoolean {
		t.Error("logical nodes are Boolean")
	}
}

func TestToMap(t *testing.T) {
	cmp, err := NewComparator(TagIsAfterDate, DatatypeDate,
		constant(t, DatatypeDate, "2001-09-11"),
		constant(t, DatatypeDate, "2001-01-01"))
	if err != nil {
		t.Fatal(err)
	}

	m := ToMap(cmp)
	if m["tag"] != "IsAfterDate" || m["datatype"] != "Date" {
		t.Errorf("header = %v", m)
	}
	operand, ok := m["operand"].(map[string]any)
	if !ok || operand["value"] != "2001-09-11" {
		t.Errorf("operand = %v", m["operand"])
	}

	header := Header(cmp)
	if _, ok := header["operand"]; ok {
		t.Error("Header() must not include operand subtrees")
	}

	match := &Match{Op: TagMatches, Operand: constant(t, DatatypeString, "bob"), Pattern: "Bob", Flags: "i"}
	if got := ToMap(match); got["pattern"] != "Bob" || got["flags"] != "i" {
		t.Errorf("match encoding = %v", got)
	}

	if ToMap(nil) != nil {
		t.Error("ToMap(nil) should be nil")
	}
}

func TestWalk(t *testing.T) {
	a := constant(t, DatatypeNumber, 1.0)
	b := constant(t, DatatypeNumber, 2.0)
	maxNode, _ := NewOperator(TagMax, DatatypeNumber, a, b)
	check, _ := NewCheck(TagIsRealNumber, DatatypeNumber, maxNode)
	root, _ := NewLogical(TagAnd, check)

	var paths []string
	err := Walk(root, VisitorFunc(func(path string, n Node) error {
		paths = append(paths, path+"="+string(n.Tag()))
		return nil
	}))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{
		"$=And",
		"$.operands[0]=IsRealNumber",
		"$.operands[0].operand=Max",
		"$.operands[0].operand.operands[0]=Constant",
		"$.operands[0].operand.operands[1]=Constant",
	}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("Walk() paths = %v, want %v", paths, want)
	}

	if got := Depth(root); got != 4 {
		t.Errorf("Depth() = %d, want 4", got)
	}
	if got := Count(root); got != 5 {
		t.Errorf("Count() = %d, want 5", got)
	}

	stop := errors.New("stop")
	err = Walk(root, VisitorFunc(func(path string, n Node) error {
		if n.Tag() == TagMax {
			return stop
		}
		return nil
	}))
	if !errors.Is(err, stop) {
		t.Errorf("Walk() should return the visitor error, got %v", err)
	}
}

func TestIsNil(t *testing.T) {
	var typed *Comparator
	if !IsNil(typed) {
		t.Error("typed nil pointer should be nil")
	}
	if !IsNil(nil) {
		t.Error("nil interface should be nil")
	}
	if IsNil(&Constant{}) {
		t.Error("empty constant is not nil")
	}
}
