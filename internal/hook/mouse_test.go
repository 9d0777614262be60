package hook

import (
	"errors"
	"testing"
)

type wheelPost struct {
	target WindowHandle
	delta  int16
	pt     Point
}

type fakeProber struct {
	rect    Rect
	rectErr error
	postErr error
	posts   []wheelPost
}

func (p *fakeProber) Rect(WindowHandle) (Rect, error) {
	if p.rectErr != nil {
		return Rect{}, p.rectErr
	}
	return p.rect, nil
}

func (p *fakeProber) PostWheel(w WindowHandle, delta int16, pt Point) error {
	p.posts = append(p.posts, wheelPost{target: w, delta: delta, pt: pt})
	return p.postErr
}

func TestRectContains(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Right: 110, Bottom: 220}

	tests := []struct {
		name string
		pt   Point
		want bool
	}{
		{"interior", Point{X: 50, Y: 100}, true},
		{"left edge", Point{X: 10, Y: 100}, true},
		{"right edge", Point{X: 110, Y: 100}, true},
		{"top edge", Point{X: 50, Y: 20}, true},
		{"bottom edge", Point{X: 50, Y: 220}, true},
		{"corner", Point{X: 110, Y: 220}, true},
		{"past left", Point{X: 9, Y: 100}, false},
		{"past right", Point{X: 111, Y: 100}, false},
		{"past top", Point{X: 50, Y: 19}, false},
		{"past bottom", Point{X: 50, Y: 221}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.pt); got != tt.want {
				t.Fatalf("Contains(%+v) = %v, want %v", tt.pt, got, tt.want)
			}
		})
	}
}

func TestForwarderHandleWheel(t *testing.T) {
	const target = WindowHandle(0x42)
	overlay := Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}

	t.Run("inside rect forwards and consumes", func(t *testing.T) {
		prober := &fakeProber{rect: overlay}
		f := NewForwarder(newFakeBackend(), prober)
		f.setTarget(target)

		pt := Point{X: 50, Y: 50}
		if !f.HandleWheel(pt, 120) {
			t.Fatal("in-rect scroll not consumed")
		}
		if len(prober.posts) != 1 {
			t.Fatalf("posted %d messages, want 1", len(prober.posts))
		}
		got := prober.posts[0]
		if got.target != target || got.delta != 120 || got.pt != pt {
			t.Fatalf("posted %+v, want target=%#x delta=120 pt=%+v", got, target, pt)
		}
	})

	t.Run("negative delta preserved", func(t *testing.T) {
		prober := &fakeProber{rect: overlay}
		f := NewForwarder(newFakeBackend(), prober)
		f.setTarget(target)

		if !f.HandleWheel(Point{X: 1, Y: 1}, -120) {
			t.Fatal("in-rect scroll not consumed")
		}
		if prober.posts[0].delta != -120 {
			t.Fatalf("delta = %d, want -120", prober.posts[0].delta)
		}
	})

	t.Run("outside rect passes through", func(t *testing.T) {
		prober := &fakeProber{rect: overlay}
		f := NewForwarder(newFakeBackend(), prober)
		f.setTarget(target)

		if f.HandleWheel(Point{X: 150, Y: 50}, 120) {
			t.Fatal("out-of-rect scroll consumed")
		}
		if len(prober.posts) != 0 {
			t.Fatalf("posted %d messages, want 0", len(prober.posts))
		}
	})

	t.Run("no target passes through", func(t *testing.T) {
		prober := &fakeProber{rect: overlay}
		f := NewForwarder(newFakeBackend(), prober)

		if f.HandleWheel(Point{X: 50, Y: 50}, 120) {
			t.Fatal("scroll consumed with no target window")
		}
		if len(prober.posts) != 0 {
			t.Fatalf("posted %d messages, want 0", len(prober.posts))
		}
	})

	t.Run("rect failure passes through", func(t *testing.T) {
		prober := &fakeProber{rectErr: errors.New("window gone")}
		f := NewForwarder(newFakeBackend(), prober)
		f.setTarget(target)

		if f.HandleWheel(Point{X: 50, Y: 50}, 120) {
			t.Fatal("scroll consumed after rect query failure")
		}
		if len(prober.posts) != 0 {
			t.Fatalf("posted %d messages, want 0", len(prober.posts))
		}
	})

	t.Run("post failure passes through", func(t *testing.T) {
		prober := &fakeProber{rect: overlay, postErr: errors.New("queue full")}
		f := NewForwarder(newFakeBackend(), prober)
		f.setTarget(target)

		if f.HandleWheel(Point{X: 50, Y: 50}, 120) {
			t.Fatal("scroll consumed after post failure")
		}
	})
}

func TestForwarderInstallZeroWindow(t *testing.T) {
	f := NewForwarder(newFakeBackend(), &fakeProber{})
	if err := f.Install(0); !errors.Is(err, ErrNilWindow) {
		t.Fatalf("Install(0) = %v, want ErrNilWindow", err)
	}
}

func TestForwarderInstallUninstall(t *testing.T) {
	backend := newFakeBackend()
	f := NewForwarder(backend, &fakeProber{})

	if err := f.Install(WindowHandle(0x42)); err != nil {
		t.Fatalf("install: %v", err)
	}
	if !f.Installed() {
		t.Fatal("forwarder not installed after Install")
	}
	if got := activeForwarder.Load(); got != f {
		t.Fatal("callback slot not pointing at the installed forwarder")
	}

	if err := f.Uninstall(); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if f.Installed() {
		t.Fatal("forwarder still installed after Uninstall")
	}
	if got := activeForwarder.Load(); got != nil {
		t.Fatal("callback slot not cleared after Uninstall")
	}
	if got := f.currentTarget(); got != 0 {
		t.Fatalf("target = %#x after Uninstall, want 0", got)
	}
}
