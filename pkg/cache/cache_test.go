package cache

import (
	"testing"
	"time"
)

func TestTTLCache_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		ttl   time.Duration
		key   string
		value string
	}{
		{name: "short ttl", ttl: 1 * time.Millisecond, key: "a", value: "one"},
		{name: "long ttl", ttl: 1 * time.Hour, key: "user:Alice", value: "payload"},
		{name: "empty value", ttl: 1 * time.Minute, key: "empty", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New[string]("test", tt.ttl)
			c.Set(tt.key, tt.value)

			got, ok := c.Get(tt.key)
			if !ok {
				t.Fatalf("Get(%q) = absent, want present", tt.key)
			}
			if got != tt.value {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestTTLCache_ExpiryEvicts(t *testing.T) {
	c := New[int]("test", 1*time.Minute)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("k", 42)

	// Advance past the TTL.
	c.now = func() time.Time { return base.Add(61 * time.Second) }

	if _, ok := c.Get("k"); ok {
		t.Fatal("Get() after TTL = present, want absent")
	}
	// Second read confirms eviction rather than masking.
	if _, ok := c.Get("k"); ok {
		t.Fatal("second Get() after TTL = present, want absent")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after eviction", c.Len())
	}
}

func TestTTLCache_ExactBoundaryStillValid(t *testing.T) {
	c := New[int]("test", 1*time.Minute)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("k", 1)

	// now - timestamp == ttl is still valid.
	c.now = func() time.Time { return base.Add(1 * time.Minute) }
	if _, ok := c.Get("k"); !ok {
		t.Error("Get() at exact TTL boundary = absent, want present")
	}
}

func TestTTLCache_SetOverwritesAndRefreshes(t *testing.T) {
	c := New[string]("test", 1*time.Minute)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("k", "old")

	// Rewrite just before expiry; the timestamp must reset.
	c.now = func() time.Time { return base.Add(59 * time.Second) }
	c.Set("k", "new")

	c.now = func() time.Time { return base.Add(100 * time.Second) }
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("Get() after rewrite = absent, want present")
	}
	if got != "new" {
		t.Errorf("Get() = %q, want %q", got, "new")
	}
}

func TestTTLCache_Invalidate(t *testing.T) {
	c := New[string]("test", 1*time.Hour)
	c.Set("a", "one")
	c.Set("b", "two")

	c.Invalidate("a")

	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Invalidate = present, want absent")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("Get(b) = absent, want present")
	}
}

func TestTTLCache_Clear(t *testing.T) {
	c := New[string]("test", 1*time.Hour)
	c.Set("a", "one")
	c.Set("b", "two")

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Clear = present, want absent")
	}
}

func TestTTLCache_StructValues(t *testing.T) {
	type payload struct {
		ID    int
		Title string
	}

	c := New[payload]("test", 1*time.Hour)
	c.Set("p", payload{ID: 7, Title: "Main Page"})

	got, ok := c.Get("p")
	if !ok {
		t.Fatal("Get() = absent, want present")
	}
	if got.ID != 7 || got.Title != "Main Page" {
		t.Errorf("Get() = %+v, want {7 Main Page}", got)
	}
}
