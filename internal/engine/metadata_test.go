package engine

import (
	"reflect"
	"testing"
)

func TestMetadataSetAndAdd(t *testing.T) {
	md := NewMetadata()
	md.Add("dc:creator", "alice")
	md.Add("dc:creator", "bob")
	md.Set("dc:title", "draft")
	md.Set("dc:title", "final")

	if got := md.Get("dc:title"); got != "final" {
		t.Fatalf("Get(dc:title) = %q, want final", got)
	}
	if got := md.Get("missing"); got != "" {
		t.Fatalf("Get(missing) = %q, want empty", got)
	}
	if got := md.Names(); !reflect.DeepEqual(got, []string{"dc:creator", "dc:title"}) {
		t.Fatalf("Names() = %v", got)
	}
}

func TestMetadataMapFlattens(t *testing.T) {
	md := NewMetadata()
	md.Set("single", "one")
	md.Add("multi", "a")
	md.Add("multi", "b")

	got := md.Map()
	if got["single"] != "one" {
		t.Fatalf("single = %v, want string", got["single"])
	}
	if !reflect.DeepEqual(got["multi"], []string{"a", "b"}) {
		t.Fatalf("multi = %v, want slice", got["multi"])
	}
}
