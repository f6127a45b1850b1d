package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/sw33tLie/estform/internal/assets"
)

func TestLoadFormDefault(t *testing.T) {
	doc, container, err := loadForm("", "")
	if err != nil {
		t.Fatalf("loadForm: %v", err)
	}
	if doc == nil || container == nil {
		t.Fatalf("want a document and a container")
	}
	if id := container.AttrOr("id", ""); "#"+id != assets.FormSelector {
		t.Fatalf("want the built-in form container, got %q", id)
	}
}

func TestLoadFormFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.html")
	html := `<div id="signup"><div class="form-group"><label>Partner Code</label><input></div></div>`
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadForm(path, "#signup"); err != nil {
		t.Fatalf("loadForm: %v", err)
	}
	if _, _, err := loadForm(path, "#missing"); err == nil {
		t.Fatalf("want an error for a selector that matches nothing")
	}
}

func TestNewSourceRejectsUnknownKind(t *testing.T) {
	viper.Set("records.source", "postgres")
	defer viper.Set("records.source", "")
	if _, _, err := newSource(); err == nil {
		t.Fatalf("want an error for an unknown source")
	}
}

func TestNewSourceRequiresMirror(t *testing.T) {
	viper.Set("records.source", "sqlite")
	viper.Set("records.dbpath", filepath.Join(t.TempDir(), "missing.sqlite"))
	defer func() {
		viper.Set("records.source", "")
		viper.Set("records.dbpath", "")
	}()
	if _, _, err := newSource(); err == nil {
		t.Fatalf("want an error when the mirror does not exist")
	}
}
