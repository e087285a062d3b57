package models

import (
	"reflect"
	"testing"
)

func TestSectionsForForm(t *testing.T) {
	cases := []struct {
		form FormType
		want []string
	}{
		{Form10K, []string{"Item1A", "Item7", "Item7A"}},
		{Form10Q, []string{"Item1A", "Item7"}},
		{Form8K, nil},
		{Form4, nil},
	}
	for _, c := range cases {
		got := SectionsForForm(c.form)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("SectionsForForm(%s) = %v, want %v", c.form, got, c.want)
		}
	}
}

func TestValidSection(t *testing.T) {
	if !ValidSection(Form10K, "Item7A") {
		t.Error("Item7A should be valid for 10-K")
	}
	if ValidSection(Form10Q, "Item7A") {
		t.Error("Item7A should not be valid for 10-Q")
	}
	if ValidSection(Form8K, "Item1A") {
		t.Error("8-K has no narrative sections")
	}
	if ValidSection(Form10K, "Item99") {
		t.Error("unknown section should be invalid")
	}
}
