package main

import "testing"

func TestClassifyPlain(t *testing.T) {
	kind, prefix, instance, ut, err := Classify("foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != KindPlain || prefix != "foo" || instance != "" || ut != UnitService {
		t.Fatalf("got kind=%v prefix=%q instance=%q ut=%v", kind, prefix, instance, ut)
	}
}

func TestClassifyInstance(t *testing.T) {
	kind, prefix, instance, ut, err := Classify("getty@tty1.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != KindInstance || prefix != "getty" || instance != "tty1" || ut != UnitService {
		t.Fatalf("got kind=%v prefix=%q instance=%q ut=%v", kind, prefix, instance, ut)
	}
}

func TestClassifyTemplate(t *testing.T) {
	kind, prefix, instance, _, err := Classify("getty@.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != KindTemplate || prefix != "getty" || instance != "" {
		t.Fatalf("got kind=%v prefix=%q instance=%q", kind, prefix, instance)
	}
}

func TestClassifyRejectsUnknownSuffix(t *testing.T) {
	if _, _, _, _, err := Classify("foo.bogus"); !IsKind(err, ErrInvalidName) {
		t.Fatalf("expected InvalidName, got %v", err)
	}
}

func TestClassifyRejectsMultipleAt(t *testing.T) {
	if _, _, _, _, err := Classify("foo@bar@baz.service"); !IsKind(err, ErrInvalidName) {
		t.Fatalf("expected InvalidName, got %v", err)
	}
}

func TestClassifyRejectsBadChars(t *testing.T) {
	if _, _, _, _, err := Classify("foo bar.service"); !IsKind(err, ErrInvalidName) {
		t.Fatalf("expected InvalidName, got %v", err)
	}
}

func TestTemplateOf(t *testing.T) {
	got, err := TemplateOf("getty@tty1.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "getty@.service" {
		t.Fatalf("got %q, want getty@.service", got)
	}
}

func TestTemplateOfAlreadyTemplate(t *testing.T) {
	got, err := TemplateOf("getty@.service")
	if err != nil || got != "getty@.service" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestInstanceOf(t *testing.T) {
	got, err := InstanceOf("getty@tty1.service")
	if err != nil || got != "tty1" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestInstanceOfRejectsPlain(t *testing.T) {
	if _, err := InstanceOf("foo.service"); !IsKind(err, ErrInvalidName) {
		t.Fatalf("expected InvalidName, got %v", err)
	}
}

func TestWithInstance(t *testing.T) {
	got, err := WithInstance("getty@.service", "ttyS0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "getty@ttyS0.service" {
		t.Fatalf("got %q, want getty@ttyS0.service", got)
	}
}

func TestWithInstanceRejectsNonTemplate(t *testing.T) {
	if _, err := WithInstance("getty@tty1.service", "ttyS0"); !IsKind(err, ErrNotATemplate) {
		t.Fatalf("expected NotATemplate, got %v", err)
	}
}

func TestWithInstanceRejectsEmpty(t *testing.T) {
	if _, err := WithInstance("getty@.service", ""); !IsKind(err, ErrInvalidTemplateRef) {
		t.Fatalf("expected InvalidTemplateRef, got %v", err)
	}
}

func TestValidMask(t *testing.T) {
	if !Valid("foo.service", MaskPlain) {
		t.Fatal("expected foo.service to be valid plain")
	}
	if Valid("foo.service", MaskTemplate) {
		t.Fatal("foo.service should not match template mask")
	}
	if !Valid("getty@tty1.service", MaskInstance) {
		t.Fatal("expected getty@tty1.service to be valid instance")
	}
}

func TestAllowsAlias(t *testing.T) {
	if allowsAlias(UnitDevice) {
		t.Fatal("device units must not allow aliases")
	}
	if !allowsAlias(UnitService) {
		t.Fatal("service units must allow aliases")
	}
}
