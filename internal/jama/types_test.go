package jama

import (
	"encoding/json"
	"testing"
)

func TestParentRefDecodeForms(t *testing.T) {
	tests := []struct {
		name string
		json string
		want ParentRef
	}{
		{"item object", `{"parent": {"item": 5}}`, ParentRef{Item: 5}},
		{"project object", `{"parent": {"project": 9}}`, ParentRef{Project: 9}},
		{"bare item id", `{"parent": 42}`, ParentRef{Item: 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var loc Location
			if err := json.Unmarshal([]byte(tt.json), &loc); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if loc.Parent == nil || *loc.Parent != tt.want {
				t.Errorf("parent = %+v, want %+v", loc.Parent, tt.want)
			}
		})
	}

	var loc Location
	if err := json.Unmarshal([]byte(`{"parent": null}`), &loc); err != nil {
		t.Fatalf("unmarshal null parent: %v", err)
	}

	if err := json.Unmarshal([]byte(`{"parent": "root"}`), &loc); err == nil {
		t.Error("expected error for string parent")
	}
}

func TestItemIsLocked(t *testing.T) {
	tests := []struct {
		name string
		item *Item
		want bool
	}{
		{"nil item", nil, false},
		{"no lock info", &Item{}, false},
		{"nested lock held", &Item{Lock: &Lock{Locked: true, LockedBy: 7}}, true},
		{"nested lock released", &Item{Lock: &Lock{Locked: false}}, false},
		{"legacy flag only", &Item{Locked: true}, true},
		{"nested wins over legacy", &Item{Lock: &Lock{Locked: false}, Locked: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.IsLocked(); got != tt.want {
				t.Errorf("IsLocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItemName(t *testing.T) {
	item := &Item{Fields: map[string]any{"name": "Brake controller"}}
	if got := item.Name(); got != "Brake controller" {
		t.Errorf("Name() = %q", got)
	}
	if got := (&Item{}).Name(); got != "" {
		t.Errorf("Name() = %q for item without fields", got)
	}
	if got := (&Item{Fields: map[string]any{"name": 42}}).Name(); got != "" {
		t.Errorf("Name() = %q for non-string name", got)
	}
}

func TestCreateItemRequestMarshal(t *testing.T) {
	req := CreateItemRequest{
		Project:  10,
		ItemType: 31,
		Location: Location{Parent: &ParentRef{Item: 77}},
		Fields:   map[string]any{"name": "Child"},
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"project":10,"itemType":31,"location":{"parent":{"item":77}},"fields":{"name":"Child"}}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}

	root := CreateItemRequest{
		Project:  10,
		ItemType: 31,
		Location: Location{Parent: &ParentRef{Project: 10}},
		Fields:   map[string]any{},
	}
	data, err = json.Marshal(root)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want = `{"project":10,"itemType":31,"location":{"parent":{"project":10}},"fields":{}}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}
}
