package either

import "testing"

func TestEither(t *testing.T) {
	t.Run("right", func(t *testing.T) {
		e := Right[string, int](42)
		if !e.IsRight() || e.IsLeft() {
			t.Fatalf("expected right arm")
		}
		v, ok := e.RightValue()
		if !ok || v != 42 {
			t.Errorf("RightValue() = %v, %v; want 42, true", v, ok)
		}
		if _, ok := e.LeftValue(); ok {
			t.Errorf("LeftValue() reported present on a right")
		}
	})

	t.Run("left", func(t *testing.T) {
		e := Left[string, int]("boom")
		if !e.IsLeft() || e.IsRight() {
			t.Fatalf("expected left arm")
		}
		l, ok := e.LeftValue()
		if !ok || l != "boom" {
			t.Errorf("LeftValue() = %q, %v; want boom, true", l, ok)
		}
		if v, ok := e.RightValue(); ok || v != 0 {
			t.Errorf("RightValue() = %v, %v; want 0, false", v, ok)
		}
	})

	t.Run("fold", func(t *testing.T) {
		describe := func(e Either[string, int]) string {
			return Fold(e,
				func(l string) string { return "left:" + l },
				func(r int) string { return "right" },
			)
		}
		if got := describe(Left[string, int]("x")); got != "left:x" {
			t.Errorf("fold left = %q", got)
		}
		if got := describe(Right[string, int](1)); got != "right" {
			t.Errorf("fold right = %q", got)
		}
	})
}
