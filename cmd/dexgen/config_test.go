package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleManifest = `
output = "hello.dex"

[[class]]
name = "com.example.Hello"
source-file = "Hello.java"

[[class.method]]
name = "answer"
returns = "int"
body = "return-int"
value = 6

[[class.method]]
name = "greet"
returns = "string"
body = "return-string"
text = "Hello, world!"

[[class.method]]
name = "nothing"
body = "return-void"
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dexgen.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Output != "hello.dex" {
		t.Errorf("Output = %q, want hello.dex", cfg.Output)
	}
	if len(cfg.Classes) != 1 {
		t.Fatalf("Classes = %d, want 1", len(cfg.Classes))
	}
	if got := len(cfg.Classes[0].Methods); got != 3 {
		t.Errorf("Methods = %d, want 3", got)
	}
	if cfg.Classes[0].SourceFile != "Hello.java" {
		t.Errorf("SourceFile = %q, want Hello.java", cfg.Classes[0].SourceFile)
	}
}

func TestLoadConfigDefaultsOutput(t *testing.T) {
	cfg, err := LoadConfig(writeManifest(t, `
[[class]]
name = "a.B"
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Output != "classes.dex" {
		t.Errorf("Output = %q, want classes.dex", cfg.Output)
	}
}

func TestLoadConfigRejectsUnknownBody(t *testing.T) {
	_, err := LoadConfig(writeManifest(t, `
[[class]]
name = "a.B"

[[class.method]]
name = "m"
body = "frobnicate"
`))
	if err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("err = %v, want unknown body kind", err)
	}
}

func TestTypeFromName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"void", "V"},
		{"", "V"},
		{"int", "I"},
		{"boolean", "Z"},
		{"long", "J"},
		{"string", "Ljava/lang/String;"},
		{"com.example.Widget", "Lcom/example/Widget;"},
	}
	for _, tt := range tests {
		got, err := typeFromName(tt.in)
		if err != nil {
			t.Fatalf("typeFromName(%q): %v", tt.in, err)
		}
		if got.Descriptor() != tt.want {
			t.Errorf("typeFromName(%q) = %q, want %q", tt.in, got.Descriptor(), tt.want)
		}
	}
}

func TestGenerate(t *testing.T) {
	cfg, err := LoadConfig(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	result, err := Generate(cfg, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(result.Image, []byte("dex\n035\x00")) {
		t.Fatalf("image magic = % X", result.Image[:8])
	}
	if len(result.Methods) != 3 {
		t.Fatalf("Methods = %d, want 3", len(result.Methods))
	}
	answer := result.Methods[0]
	if answer.Shorty != "I" {
		t.Errorf("answer shorty = %q, want I", answer.Shorty)
	}
	if !strings.Contains(answer.Listing, "const/4 v0, #+6") {
		t.Errorf("answer listing = %q, want const/4 v0, #+6", answer.Listing)
	}
	if !strings.Contains(result.Methods[2].Listing, "return-void") {
		t.Errorf("nothing listing = %q, want return-void", result.Methods[2].Listing)
	}
}

func TestGenerateReturnNewRequiresObject(t *testing.T) {
	cfg, err := LoadConfig(writeManifest(t, `
[[class]]
name = "a.B"

[[class.method]]
name = "m"
returns = "int"
body = "return-new"
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, err := Generate(cfg, false); err == nil {
		t.Error("Generate accepted return-new with a primitive return type")
	}
}

func TestReportRoundTrip(t *testing.T) {
	report := &BuildReport{
		Output:    "x.dex",
		ImageSize: 512,
		Methods: []MethodReport{
			{Class: "a.B", Name: "m", Shorty: "V", Registers: 1, CodeUnits: 1},
		},
	}
	data, err := MarshalReport(report)
	if err != nil {
		t.Fatalf("MarshalReport: %v", err)
	}
	got, err := UnmarshalReport(data)
	if err != nil {
		t.Fatalf("UnmarshalReport: %v", err)
	}
	if got.Output != report.Output || got.ImageSize != report.ImageSize {
		t.Errorf("round trip = %+v, want %+v", got, report)
	}
	if len(got.Methods) != 1 || got.Methods[0].Name != "m" {
		t.Errorf("methods = %+v, want one method m", got.Methods)
	}
}
