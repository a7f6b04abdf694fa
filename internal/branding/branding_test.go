package branding

import "testing"

func TestEmbeddedIdentity(t *testing.T) {
	if CLIName() != "quill" {
		t.Errorf("CLIName() = %q, want %q", CLIName(), "quill")
	}
	if HomeDir() != ".quill" {
		t.Errorf("HomeDir() = %q, want %q", HomeDir(), ".quill")
	}
	if PackageScope() != "@quill" {
		t.Errorf("PackageScope() = %q, want %q", PackageScope(), "@quill")
	}
	if FrameworkVersion() == "" {
		t.Error("FrameworkVersion() should not be empty")
	}
}

func TestEnvVar(t *testing.T) {
	if got := EnvVar("uuid_prefix"); got != "QUILL_UUID_PREFIX" {
		t.Errorf("EnvVar() = %q, want %q", got, "QUILL_UUID_PREFIX")
	}
}
