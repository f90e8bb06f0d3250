package vdom

import "testing"

func TestCreateElementArgs(t *testing.T) {
	node := Div(
		ID("main"),
		Class("card"),
		nil,
		[]Attr{Data("name", "react"), Key("k1")},
		H1(Text("Title")),
		[]*VNode{P(Text("a")), nil, P(Text("b"))},
		"tail",
	)

	if node.Kind != KindElement || node.Tag != "div" {
		t.Fatalf("unexpected node %v/%s", node.Kind, node.Tag)
	}
	if node.Props["id"] != "main" {
		t.Errorf("id = %v", node.Props["id"])
	}
	if node.Props["data-name"] != "react" {
		t.Errorf("data-name = %v", node.Props["data-name"])
	}
	if node.Key != "k1" {
		t.Errorf("Key = %q", node.Key)
	}
	if _, ok := node.Props["key"]; ok {
		t.Error("key must not be stored as a prop")
	}
	if len(node.Children) != 4 {
		t.Fatalf("children = %d, want 4", len(node.Children))
	}
	if node.Children[3].Kind != KindText || node.Children[3].Text != "tail" {
		t.Errorf("string child not converted to text: %+v", node.Children[3])
	}
}

func TestClassAccumulates(t *testing.T) {
	node := Button(Class("btn"), Class("btn-primary"))
	if got := node.Props["class"]; got != "btn btn-primary" {
		t.Errorf("class = %q", got)
	}
}

func TestAttrIf(t *testing.T) {
	if !AttrIf(false, Open()).IsEmpty() {
		t.Error("AttrIf(false) should be empty")
	}
	node := Dialog(AttrIf(true, Open()))
	if node.Props["open"] != true {
		t.Error("AttrIf(true) should set open")
	}
}

func TestIsVoidElement(t *testing.T) {
	for _, tag := range []string{"input", "br", "img", "meta"} {
		if !IsVoidElement(tag) {
			t.Errorf("%s should be void", tag)
		}
	}
	if IsVoidElement("div") {
		t.Error("div is not void")
	}
}

func TestFragmentSkipsNil(t *testing.T) {
	f := Fragment(nil, Text("a"), []*VNode{nil, Text("b")}, "c")
	if len(f.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(f.Children))
	}
}
