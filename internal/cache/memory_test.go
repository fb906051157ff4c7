package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")

	if _, err := c.Get(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("Get(missing) err = %v, want not-found", err)
	}

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	v, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if v != "v" {
		t.Fatalf("Get = %q, want %q", v, "v")
	}

	ok, err := c.Exists(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true, nil", ok, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("Get after Delete err = %v, want not-found", err)
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	if err := c.Set(ctx, "ephemeral", "1", 30*time.Millisecond); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	if _, err := c.Get(ctx, "ephemeral"); err != nil {
		t.Fatalf("Get before expiry err: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := c.Get(ctx, "ephemeral"); !IsNotFound(err) {
		t.Fatalf("Get after expiry err = %v, want not-found", err)
	}
}

func TestMemory_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	a := NewMemory("a")
	b := NewMemory("b")

	if err := a.Set(ctx, "k", "from-a", 0); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	if _, err := b.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("clients share state across instances: err = %v", err)
	}
}

func TestNew_DriverSelection(t *testing.T) {
	c, err := New(Config{Driver: "memory"})
	if err != nil {
		t.Fatalf("New(memory) err: %v", err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping err: %v", err)
	}

	if _, err := New(Config{Driver: "bogus"}); err == nil {
		t.Fatalf("New(bogus) should fail")
	}
}
