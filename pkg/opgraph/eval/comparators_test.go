package eval

import (
	"context"
	"strings"
	"testing"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/result"
)

func TestBinaryComparators(t *testing.T) {
	ev := newTestEvaluator(t)
	ctx := context.Background()

	tests := []struct {
		op      ast.Tag
		dt      ast.Datatype
		operand any
		test    any
		wantOK  bool
		wantMsg string
	}{
		{ast.TagIsBeforeDate, ast.DatatypeDate, "2001-01-01", "2001-09-11", true, ""},
		{ast.TagIsOnOrAfterDate, ast.DatatypeDate, "2001-01-01", "2001-01-01", true, ""},
		{ast.TagIsOnOrBeforeDate, ast.DatatypeDate, "2001-01-02", "2001-01-01", false, "2001-01-02 is not on or before 2001-01-01."},
		{ast.TagIsNotSameDate, ast.DatatypeDate, "2001-01-01", "2001-01-01", false, "2001-01-01 is the same as 2001-01-01."},
		{ast.TagIsAfterDateTime, ast.DatatypeDateTime, "2024-01-01T10:00:00Z", "2024-01-01T09:00:00Z", true, ""},
		{ast.TagIsBeforeTime, ast.DatatypeTime, "09:30", "08:00", false, "09:30 is not before 08:00."},
		{ast.TagIsMoreThan, ast.DatatypeNumber, 10.0, 2.0, true, ""},
		{ast.TagIsAtLeast, ast.DatatypeNumber, 1.0, 2.0, false, "1 is less than 2."},
		{ast.TagIsAtMost, ast.DatatypeInteger, 3.0, 2.0, false, "3 is more than 2."},
		{ast.TagIsEqualTo, ast.DatatypeNumber, 2.0, "2", true, ""},
		{ast.TagIsNotEqualTo, ast.DatatypeNumber, 2.5, 2.5, false, "2.5 is equal to 2.5."},
		{ast.TagIsLongerThan, ast.DatatypeDuration, "PT2H", "PT90M", true, ""},
		{ast.TagIsShorterThan, ast.DatatypeDuration, "P1D", "PT12H", false, "P1D is not shorter than PT12H."},
		{ast.TagIsSameDuration, ast.DatatypeDuration, "PT60M", "PT1H", true, ""},
		{ast.TagIsBeforeAlphabetically, ast.DatatypeString, "apple", "Banana", true, ""},
		{ast.TagIsAfterAlphabetically, ast.DatatypeString, "apple", "banana", false, "apple is not after alphabetically banana."},
		{ast.TagIsSubset, ast.DatatypeSet, []any{1.0, 2.0}, []any{3.0, 2.0, 1.0}, true, ""},
		{ast.TagIsSuperset, ast.DatatypeSet, []any{1.0}, []any{1.0, 2.0}, false, "[1] is not a superset of [1,2]."},
		{ast.TagIsSameSet, ast.DatatypeSet, []any{1.0, 2.0, 2.0}, []any{2.0, 1.0}, true, ""},
		{ast.TagIsNotSameSet, ast.DatatypeSet, []any{"a"}, []any{"a"}, false, "[a] is the same set as [a]."},
		{ast.TagIsMemberOf, ast.DatatypeAny, "b", []any{"a", "b"}, true, ""},
		{ast.TagIsNotMemberOf, ast.DatatypeAny, 3.0, []any{1.0, 2.0, 3.0}, false, "3 is a member of [1,2,3]."},
		{ast.TagIsSame, ast.DatatypeObject, map[string]any{"a": 1.0}, map[string]any{"a": 1.0}, true, ""},
		{ast.TagIsNotSame, ast.DatatypeAny, "a\xff", "a\xfe", true, ""},
		{ast.TagIsDisjointSet, ast.DatatypeSet, []any{"\xff"}, []any{"\xfe"}, true, ""},
		{ast.TagIsNotSame, ast.DatatypeAny, int64(1<<53 + 1), int64(1 << 53), true, ""},
		{ast.TagIsNotMemberOf, ast.DatatypeAny, int64(1<<53 + 1), []any{int64(1 << 53)}, true, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			tree := &ast.Comparator{Op: tt.op, Type: tt.dt, Operand: constant("", tt.operand), Test: constant("", tt.test)}
			r := ev.Evaluate(ctx, tree, nil)
			if tt.wantOK {
				mustRight(t, r)
				return
			}
			left := mustLeft(t, r)
			if got := left.Messages()[0]; got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
			if !left.HasErrorType(result.ErrorTypeComparison) {
				t.Errorf("expected a Comparison error, got %v", left.Errors()[0].Type)
			}
		})
	}
}

func TestSameComparatorsOnEqualValues(t *testing.T) {
	ev := newTestEvaluator(t)
	ctx := context.Background()

	pairs := []struct {
		same, notSame ast.Tag
		dt            ast.Datatype
		value         any
	}{
		{ast.TagIsSameDate, ast.TagIsNotSameDate, ast.DatatypeDate, "2024-02-29"},
		{ast.TagIsSameDateTime, ast.TagIsNotSameDateTime, ast.DatatypeDateTime, "2024-02-29T12:00:00Z"},
		{ast.TagIsSame, ast.TagIsNotSame, ast.DatatypeNumber, 42.0},
		{ast.TagIsSame, ast.TagIsNotSame, ast.DatatypeString, "x"},
		{ast.TagIsSameSet, ast.TagIsNotSameSet, ast.DatatypeSet, []any{"a", "b"}},
		{ast.TagIsEqualTo, ast.TagIsNotEqualTo, ast.DatatypeNumber, -3.0},
	}

	for _, p := range pairs {
		t.Run(string(p.same), func(t *testing.T) {
			same := &ast.Comparator{Op: p.same, Type: p.dt, Operand: constant(p.dt, p.value), Test: constant(p.dt, p.value)}
			got := mustRight(t, ev.Evaluate(ctx, same, nil))
			if result.Format(got) != result.Format(p.value) {
				t.Errorf("%s passed %v, want %v", p.same, got, p.value)
			}
			notSame := &ast.Comparator{Op: p.notSame, Type: p.dt, Operand: constant(p.dt, p.value), Test: constant(p.dt, p.value)}
			mustLeft(t, ev.Evaluate(ctx, notSame, nil))
		})
	}
}

func TestComparatorConstructionErrors(t *testing.T) {
	ev := newTestEvaluator(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		op      ast.Tag
		operand any
		test    any
		want    string
	}{
		{"set from boolean", ast.TagIsSubset, true, []any{1.0}, "cannot convert a boolean to a set"},
		{"set from number", ast.TagIsDisjointSet, 5.0, []any{1.0}, "cannot convert a number to a set"},
		{"invalid date", ast.TagIsAfterDate, "2001-02-30", "2001-01-01", "2001-02-30 is not a valid date"},
		{"invalid duration", ast.TagIsLongerThan, "1 hour", "PT1H", "1 hour is not a valid duration"},
		{"non-numeric", ast.TagIsMoreThan, "ten", 1.0, "is not a number"},
		{"alphabetical non-string", ast.TagIsBeforeAlphabetically, 1.0, "a", "value is not a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := &ast.Comparator{Op: tt.op, Operand: constant("", tt.operand), Test: constant("", tt.test)}
			left := mustLeft(t, ev.Evaluate(ctx, tree, nil))
			errs := left.ByType(result.ErrorTypeConstruction)
			if len(errs) != 1 {
				t.Fatalf("expected one Construction error, got %v", left.Errors())
			}
			if !strings.Contains(strings.ToLower(errs[0].Message), strings.ToLower(tt.want)) {
				t.Errorf("message = %q, want it to contain %q", errs[0].Message, tt.want)
			}
			if _, ok := errs[0].Operation["operand"]; !ok {
				t.Errorf("snapshot lacks resolved operand: %v", errs[0].Operation)
			}
		})
	}
}

func TestChecks(t *testing.T) {
	ev := newTestEvaluator(t)
	ctx := context.Background()

	tests := []struct {
		op     ast.Tag
		value  any
		wantOK bool
	}{
		{ast.TagIsRealNumber, 3.14, true},
		{ast.TagIsRealNumber, "abc", false},
		{ast.TagIsInteger, 3.0, true},
		{ast.TagIsInteger, 3.5, false},
		{ast.TagIsBoolean, false, true},
		{ast.TagIsString, 1.0, false},
		{ast.TagIsValidDate, "2024-02-29", true},
		{ast.TagIsValidDate, "2023-02-29", false},
		{ast.TagIsValidDateTime, "2024-02-29T23:59:59Z", true},
		{ast.TagIsValidTime, "25:00", false},
		{ast.TagIsValidDuration, "P1Y2M10DT2H30M", true},
		{ast.TagIsValidDuration, "PT", false},
		{ast.TagIsValidYearWeek, "2020-W53", true},
		{ast.TagIsValidYearWeek, "2021-W53", false},
		{ast.TagIsValidYearMonth, "2024-13", false},
		{ast.TagIsEmailAddress, "ada@example.com", true},
		{ast.TagIsEmailAddress, "Ada <ada@example.com>", false},
		{ast.TagIsURL, "https://example.com/x", true},
		{ast.TagIsURL, "example.com", false},
		{ast.TagIsUUID, "f47ac10b-58cc-4372-a567-0e02b2c3d479", true},
		{ast.TagIsUUID, "f47ac10b58cc4372a5670e02b2c3d479", false},
		{ast.TagIsEmpty, []any{}, true},
		{ast.TagIsNotEmpty, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			r := ev.Evaluate(ctx, &ast.Check{Op: tt.op, Operand: constant("", tt.value)}, nil)
			if tt.wantOK {
				if got := mustRight(t, r); result.Format(got) != result.Format(tt.value) {
					t.Errorf("got %v, want operand %v", got, tt.value)
				}
				return
			}
			left := mustLeft(t, r)
			phrase, _ := Phrase(tt.op)
			if want := result.Format(tt.value) + " " + phrase + "."; left.Messages()[0] != want {
				t.Errorf("message = %q, want %q", left.Messages()[0], want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	ev := newTestEvaluator(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		op       ast.Tag
		subject  any
		pattern  string
		flags    string
		wantOK   bool
		wantType result.ErrorType
		wantMsg  string
	}{
		{name: "anchored match", op: ast.TagMatches, subject: "AB-123", pattern: `^[A-Z]{2}-\d+$`, wantOK: true},
		{name: "does not match", op: ast.TagDoesNotMatch, subject: "abc", pattern: `\d`, wantOK: true},
		{name: "unexpected match", op: ast.TagDoesNotMatch, subject: "a1", pattern: `\d`,
			wantType: result.ErrorTypeComparison, wantMsg: `a1 matches \d.`},
		{name: "multiline flag", op: ast.TagMatches, subject: "one\ntwo", pattern: `^two$`, flags: "m", wantOK: true},
		{name: "global flag ignored", op: ast.TagMatches, subject: "x", pattern: "x", flags: "g", wantOK: true},
		{name: "invalid pattern", op: ast.TagMatches, subject: "x", pattern: "(x",
			wantType: result.ErrorTypeConstruction, wantMsg: "missing closing )"},
		{name: "invalid flag", op: ast.TagMatches, subject: "x", pattern: "x", flags: "q",
			wantType: result.ErrorTypeConstruction, wantMsg: `flag "q"`},
		{name: "non-string subject", op: ast.TagMatches, subject: 12.0, pattern: "1",
			wantType: result.ErrorTypeConstruction, wantMsg: "value is not a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := &ast.Match{Op: tt.op, Operand: constant("", tt.subject), Pattern: tt.pattern, Flags: tt.flags}
			r := ev.Evaluate(ctx, tree, nil)
			if tt.wantOK {
				if got := mustRight(t, r); got != true {
					t.Errorf("got %v, want true", got)
				}
				return
			}
			left := mustLeft(t, r)
			errs := left.ByType(tt.wantType)
			if len(errs) != 1 || !strings.Contains(errs[0].Message, tt.wantMsg) {
				t.Errorf("got %v, want %s error containing %q", left.Errors(), tt.wantType, tt.wantMsg)
			}
		})
	}
}

func TestPatternCache(t *testing.T) {
	ev := newTestEvaluator(t)
	a, err := ev.pattern("^a+$", "i")
	if err != nil {
		t.Fatalf("pattern() error = %v", err)
	}
	b, _ := ev.pattern("^a+$", "i")
	if a != b {
		t.Error("expected the cached regular expression to be reused")
	}
	c, _ := ev.pattern("^a+$", "")
	if a == c {
		t.Error("flags must be part of the cache key")
	}
}

func TestPolicy(t *testing.T) {
	ev := newTestEvaluator(t)
	ctx := context.Background()
	locals := map[string]any{"roles": []any{"editor", "viewer"}}

	tests := []struct {
		name    string
		node    *ast.Policy
		locals  map[string]any
		want    any
		wantMsg string
	}{
		{name: "has role", node: &ast.Policy{Op: ast.TagHasRole, Role: "editor"}, locals: locals, want: "editor"},
		{name: "missing role", node: &ast.Policy{Op: ast.TagHasRole, Role: "admin"}, locals: locals,
			wantMsg: "[editor,viewer] does not have role admin."},
		{name: "any role", node: &ast.Policy{Op: ast.TagHasAnyRole, Roles: []string{"admin", "viewer"}}, locals: locals,
			want: "[admin,viewer]"},
		{name: "all roles", node: &ast.Policy{Op: ast.TagHasAllRoles, Roles: []string{"admin", "viewer"}}, locals: locals,
			wantMsg: "[editor,viewer] does not have all of the roles [admin,viewer]."},
		{name: "operand passes through", node: &ast.Policy{Op: ast.TagHasRole, Role: "viewer", Operand: constant(ast.DatatypeString, "doc-1")},
			locals: locals, want: "doc-1"},
		{name: "no roles local", node: &ast.Policy{Op: ast.TagHasAnyRole, Roles: []string{"viewer"}},
			wantMsg: "[] does not have any of the roles [viewer]."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ev.Evaluate(ctx, tt.node, tt.locals)
			if tt.wantMsg != "" {
				if got := mustLeft(t, r).Messages()[0]; got != tt.wantMsg {
					t.Errorf("message = %q, want %q", got, tt.wantMsg)
				}
				return
			}
			if got := result.Format(mustRight(t, r)); got != result.Format(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("custom roles key", func(t *testing.T) {
		ev, err := New(DefaultConfig().WithRolesKey("groups"))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		r := ev.Evaluate(ctx, &ast.Policy{Op: ast.TagHasRole, Role: "ops"}, map[string]any{"groups": []string{"ops"}})
		mustRight(t, r)
	})

	t.Run("snapshot keeps required and held roles apart", func(t *testing.T) {
		node := &ast.Policy{Op: ast.TagHasAnyRole, Roles: []string{"admin", "editor"}}
		r := ev.Evaluate(ctx, node, map[string]any{"roles": []any{"user"}})
		op := mustLeft(t, r).Errors()[0].Operation
		if got := result.Format(op["roles"]); got != "[admin,editor]" {
			t.Errorf("operation roles = %s, want [admin,editor]", got)
		}
		if got := result.Format(op["principal_roles"]); got != "[user]" {
			t.Errorf("operation principal_roles = %s, want [user]", got)
		}
	})

	t.Run("roles not a list", func(t *testing.T) {
		r := ev.Evaluate(ctx, &ast.Policy{Op: ast.TagHasRole, Role: "ops"}, map[string]any{"roles": "ops"})
		if !mustLeft(t, r).HasErrorType(result.ErrorTypeConstruction) {
			t.Error("expected a Construction error")
		}
	})
}

func TestEveryPredicateHasAPhrase(t *testing.T) {
	for _, kind := range []ast.Kind{ast.KindComparator, ast.KindCheck, ast.KindPolicy} {
		for _, tag := range ast.TagsOfKind(kind) {
			if _, ok := Phrase(tag); !ok {
				t.Errorf("%s has no failure phrase", tag)
			}
		}
	}
}
