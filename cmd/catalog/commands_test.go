package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/angelmondragon/sweetdelights-backend/internal/catalog"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListFiltersByFlavor(t *testing.T) {
	out, err := execute(t, "list", "--flavor", "Chocolate", "--format", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var cakes []catalog.Cake
	if err := json.Unmarshal([]byte(out), &cakes); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(cakes) != 2 {
		t.Fatalf("expected 2 chocolate cakes got %d", len(cakes))
	}
	for _, c := range cakes {
		if c.Flavor != "Chocolate" {
			t.Fatalf("unexpected flavor %q", c.Flavor)
		}
	}
}

func TestListRejectsUnknownSort(t *testing.T) {
	if _, err := execute(t, "list", "--sort", "cheapest"); err == nil {
		t.Fatal("expected invalid sort to fail")
	}
}

func TestListRejectsUnknownDietary(t *testing.T) {
	if _, err := execute(t, "list", "--dietary", "Keto"); err == nil {
		t.Fatal("expected invalid dietary tag to fail")
	}
}

func TestShowPrintsSizes(t *testing.T) {
	out, err := execute(t, "show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Chocolate Dream") || !strings.Contains(out, "$59.99") {
		t.Fatalf("unexpected show output:\n%s", out)
	}
}

func TestShowUnknownCake(t *testing.T) {
	if _, err := execute(t, "show", "404"); err == nil {
		t.Fatal("expected unknown cake to fail")
	}
}

func TestRejectsUnknownFormat(t *testing.T) {
	if _, err := execute(t, "options", "--format", "xml"); err == nil {
		t.Fatal("expected invalid format to fail")
	}
}

func TestOptionsText(t *testing.T) {
	out, err := execute(t, "options")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if !strings.Contains(out, "flavors:   All") {
		t.Fatalf("expected flavors line, got:\n%s", out)
	}
}
