package main

import "testing"

func TestInstallContextAddDerivesNameFromPath(t *testing.T) {
	ctx := NewInstallContext()
	info, err := ctx.Add("", "/etc/systemd/system/foo.service", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "foo.service" {
		t.Fatalf("got %q, want foo.service", info.Name)
	}
}

func TestInstallContextAddRequiresNameOrPath(t *testing.T) {
	ctx := NewInstallContext()
	if _, err := ctx.Add("", "", "", false); !IsKind(err, ErrInvalidName) {
		t.Fatalf("expected InvalidName, got %v", err)
	}
}

func TestInstallContextAddIsIdempotentAndAndsAuxiliary(t *testing.T) {
	ctx := NewInstallContext()
	first, _ := ctx.Add("foo.service", "", "", true)
	second, _ := ctx.Add("foo.service", "", "", false)
	if first != second {
		t.Fatal("expected the same record to be returned")
	}
	if second.Auxiliary {
		t.Fatal("expected auxiliary to be ANDed to false")
	}
}

func TestInstallContextRetireMovesBetweenStores(t *testing.T) {
	ctx := NewInstallContext()
	ctx.Add("foo.service", "", "", false)

	if _, ok := ctx.haveProcessed["foo.service"]; ok {
		t.Fatal("should not be retired yet")
	}
	ctx.Retire("foo.service")
	if _, ok := ctx.willProcess["foo.service"]; ok {
		t.Fatal("expected removal from will_process")
	}
	if _, ok := ctx.haveProcessed["foo.service"]; !ok {
		t.Fatal("expected presence in have_processed")
	}
}

func TestInstallContextRetireOfUnknownNameIsNoop(t *testing.T) {
	ctx := NewInstallContext()
	ctx.Retire("nonexistent.service")
	if len(ctx.haveProcessed) != 0 {
		t.Fatal("expected no entries created")
	}
}

func TestInstallContextFindPrefersHaveProcessed(t *testing.T) {
	ctx := NewInstallContext()
	ctx.Add("foo.service", "", "", false)
	ctx.Retire("foo.service")

	info, ok := ctx.Find("foo.service")
	if !ok {
		t.Fatal("expected to find retired record")
	}
	if info.Name != "foo.service" {
		t.Fatalf("got %q", info.Name)
	}
}
