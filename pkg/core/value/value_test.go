package value_test

import (
	"testing"

	"github.com/chazu/kozi/pkg/core/value"
	"github.com/chazu/kozi/pkg/gc"
)

func TestEqualityAcrossTags(t *testing.T) {
	if value.Number(0).Equal(value.Bool(false)) {
		t.Errorf("values of different tags must never be equal")
	}
	if !value.Nil.Equal(value.Nil) {
		t.Errorf("nil must equal nil")
	}
}

func TestNumberEquality(t *testing.T) {
	if !value.Number(3).Equal(value.Number(3)) {
		t.Errorf("equal numbers must compare equal")
	}
	if value.Number(3).Equal(value.Number(4)) {
		t.Errorf("unequal numbers must not compare equal")
	}
}

func TestStringEqualityByInternedHandle(t *testing.T) {
	c := gc.New()
	a := value.String(c.Intern("hi"))
	b := value.String(c.Intern("hi"))
	if !a.Equal(b) {
		t.Errorf("strings with equal contents must compare equal via shared handle")
	}
}

func TestFalseyness(t *testing.T) {
	cases := []struct {
		v      value.Value
		falsey bool
	}{
		{value.Nil, true},
		{value.Bool(false), true},
		{value.Bool(true), false},
		{value.Number(0), false},
	}
	for _, c := range cases {
		if got := c.v.IsFalsey(); got != c.falsey {
			t.Errorf("IsFalsey(%v) = %v, want %v", c.v.Format(), got, c.falsey)
		}
	}
}

func TestFormat(t *testing.T) {
	c := gc.New()
	cases := []struct {
		v    value.Value
		want string
	}{
		{value.Nil, "nil"},
		{value.Bool(true), "true"},
		{value.Bool(false), "false"},
		{value.Number(3), "3"},
		{value.String(c.Intern("abc")), "abc"},
	}
	for _, tc := range cases {
		if got := tc.v.Format(); got != tc.want {
			t.Errorf("Format() = %q, want %q", got, tc.want)
		}
	}
}
