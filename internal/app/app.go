// Package app wires the overlay subsystems together: the global input
// hooks, the event bus, the settings file, and the release checker. The
// Application owns their lifecycles; the UI layer drives it through
// AttachWindow, Lock, and Unlock.
package app

import (
	"context"
	"errors"
	"sync"

	"github.com/screenprompt/screenprompt/internal/config"
	"github.com/screenprompt/screenprompt/internal/event"
	"github.com/screenprompt/screenprompt/internal/hook"
	"github.com/screenprompt/screenprompt/internal/update"
	"github.com/screenprompt/screenprompt/internal/winapi"
)

// WindowOps abstracts the one-shot native window calls so the
// coordination logic can be exercised without a desktop.
type WindowOps interface {
	// ApplyCaptureExclusion hides the window from screen capture.
	ApplyCaptureExclusion(w winapi.Window) error

	// SetClickThrough toggles whether pointer events fall through the window.
	SetClickThrough(w winapi.Window, enabled bool) error

	// SupportsCaptureExclusion reports whether the OS can exclude
	// windows from capture.
	SupportsCaptureExclusion() bool

	// ScreenSize returns the primary monitor's dimensions in pixels.
	ScreenSize() (width, height int, err error)
}

// platformWindowOps delegates to the real native calls.
type platformWindowOps struct{}

func (platformWindowOps) ApplyCaptureExclusion(w winapi.Window) error {
	return winapi.ApplyCaptureExclusion(w)
}

func (platformWindowOps) SetClickThrough(w winapi.Window, enabled bool) error {
	return winapi.SetClickThrough(w, enabled)
}

func (platformWindowOps) SupportsCaptureExclusion() bool {
	return winapi.SupportsCaptureExclusion()
}

func (platformWindowOps) ScreenSize() (int, int, error) {
	return winapi.ScreenSize()
}

// Application coordinates the overlay's subsystems.
//
// "Locked" means the overlay is click-through: pointer events fall
// through to the windows beneath it while the scroll forwarder re-routes
// wheel input back in. The keyboard watcher stays installed for the
// whole run so the panic key can always unlock.
type Application struct {
	logger  *Logger
	cfg     *config.Config
	bus     event.Bus
	watcher *hook.Watcher
	fwd     *hook.Forwarder
	ops     WindowOps
	version string
	checker *update.Checker

	cfgWatcher *config.Watcher
	unlockSub  event.Subscription

	mu      sync.Mutex
	running bool
	window  winapi.Window
	locked  bool
}

// Option configures an Application.
type Option func(*Application)

// WithLogger sets the application logger.
func WithLogger(l *Logger) Option {
	return func(a *Application) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithBus replaces the default event bus.
func WithBus(b event.Bus) Option {
	return func(a *Application) {
		if b != nil {
			a.bus = b
		}
	}
}

// WithWindowOps replaces the native window calls, for tests.
func WithWindowOps(ops WindowOps) Option {
	return func(a *Application) {
		if ops != nil {
			a.ops = ops
		}
	}
}

// WithVersion sets the running version reported to the update checker.
func WithVersion(v string) Option {
	return func(a *Application) {
		if v != "" {
			a.version = v
		}
	}
}

// WithChecker replaces the default release checker.
func WithChecker(c *update.Checker) Option {
	return func(a *Application) {
		if c != nil {
			a.checker = c
		}
	}
}

// New creates the application around the given settings and hook backend.
func New(cfg *config.Config, backend hook.Backend, prober hook.WindowProber, opts ...Option) *Application {
	a := &Application{
		logger:  NewLogger(DefaultLoggerConfig()),
		cfg:     cfg,
		bus:     event.NewBus(),
		ops:     platformWindowOps{},
		version: "0.0.0",
	}
	for _, opt := range opts {
		opt(a)
	}

	hookLog := a.logger.WithComponent("hook")
	a.watcher = hook.NewWatcher(backend,
		hook.WithPanicKey(cfg.PanicKey()),
		hook.WithWatcherManager(hook.WithLogger(hookLog)),
	)
	a.fwd = hook.NewForwarder(backend, prober,
		hook.WithForwarderManager(hook.WithLogger(hookLog)),
	)
	return a
}

// Bus returns the application's event bus.
func (a *Application) Bus() event.Bus {
	return a.bus
}

// Config returns the application's settings.
func (a *Application) Config() *config.Config {
	return a.cfg
}

// emergencySink forwards panic-key presses onto the event bus. It runs
// on the hook thread, so it only enqueues and never blocks.
type emergencySink struct {
	app *Application
}

func (s *emergencySink) EmergencyUnlock() {
	ev := event.New(TopicEmergencyUnlock, nil, "hook.keyboard")
	if err := s.app.bus.PublishAsync(context.Background(), ev); err != nil {
		s.app.logger.Warn("emergency unlock event dropped: %v", err)
	}
}

// Start brings up the event bus, the emergency-unlock subscription, and
// the keyboard watcher. On platforms without low-level hooks the watcher
// is skipped and the overlay runs without a panic key.
func (a *Application) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return ErrAlreadyRunning
	}

	if err := a.bus.Start(); err != nil && !errors.Is(err, event.ErrBusAlreadyRunning) {
		return NewOperationError("start", err)
	}

	sub, err := a.bus.SubscribeFunc(TopicEmergencyUnlock, func(ctx context.Context, ev event.Event) error {
		return a.Unlock()
	}, event.WithAsync())
	if err != nil {
		return NewOperationError("start", err)
	}
	a.unlockSub = sub

	if err := a.watcher.Install(&emergencySink{app: a}); err != nil {
		if errors.Is(err, hook.ErrUnsupported) {
			a.logger.Warn("global keyboard hook unavailable; panic key disabled")
		} else {
			return NewOperationError("start", err)
		}
	}

	a.running = true
	a.logger.Info("application started (version %s)", a.version)
	return nil
}

// WatchConfig starts live reload of the settings file. Changes are
// republished on the bus as TopicConfigReloaded.
func (a *Application) WatchConfig() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cfgWatcher != nil {
		return nil
	}
	w, err := config.Watch(a.cfg)
	if err != nil {
		return NewOperationError("watch-config", err)
	}
	w.OnChange(func(c *config.Config) {
		a.logger.Debug("settings file reloaded")
		ev := event.New(TopicConfigReloaded, c, "config.watcher")
		if err := a.bus.PublishAsync(context.Background(), ev); err != nil {
			a.logger.Warn("config reload event dropped: %v", err)
		}
	})
	a.cfgWatcher = w
	return nil
}

// AttachWindow binds the overlay window: capture exclusion is applied
// when the OS supports it, and a click-through state saved by the
// previous run is restored.
func (a *Application) AttachWindow(w winapi.Window) error {
	if w == 0 {
		return ErrNoWindow
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.window = w
	if a.ops.SupportsCaptureExclusion() {
		if err := a.ops.ApplyCaptureExclusion(w); err != nil {
			// The overlay still works, it is just visible in captures.
			a.logger.Warn("capture exclusion failed: %v", err)
		}
	} else {
		a.logger.Warn("capture exclusion not supported on this OS build")
	}

	// A monitor change since the last run can leave the saved position
	// off screen; pull it back so the overlay stays reachable.
	if sw, sh, err := a.ops.ScreenSize(); err == nil {
		x, y := a.cfg.X(), a.cfg.Y()
		cx, cy := clampOrigin(x, y, a.cfg.Width(), a.cfg.Height(), sw, sh)
		if cx != x || cy != y {
			a.logger.Info("moving overlay on screen: (%d,%d) -> (%d,%d)", x, y, cx, cy)
			if err := a.cfg.SetBounds(cx, cy, a.cfg.Width(), a.cfg.Height()); err == nil {
				if err := a.cfg.Save(); err != nil {
					a.logger.Warn("saving settings failed: %v", err)
				}
			}
		}
	}

	if a.cfg.Locked() && !a.locked {
		if err := a.lockLocked(); err != nil {
			a.logger.Warn("restoring locked state failed: %v", err)
		}
	}
	return nil
}

// clampOrigin moves a window origin so at least part of the window stays
// on a screen of the given size.
func clampOrigin(x, y, width, height, screenW, screenH int) (int, int) {
	if x+width < 0 || x > screenW {
		x = 0
	}
	if y+height < 0 || y > screenH {
		y = 0
	}
	return x, y
}

// Lock switches the overlay into click-through mode and starts the
// scroll forwarder. Locking an already locked overlay is a no-op.
func (a *Application) Lock() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lockLocked()
}

// lockLocked is Lock with a.mu held.
func (a *Application) lockLocked() error {
	if a.window == 0 {
		return ErrNoWindow
	}
	if a.locked {
		return nil
	}

	if err := a.ops.SetClickThrough(a.window, true); err != nil {
		return NewOperationError("lock", err)
	}
	if err := a.fwd.Install(hook.WindowHandle(a.window)); err != nil {
		if errors.Is(err, hook.ErrUnsupported) {
			a.logger.Warn("global mouse hook unavailable; scrolling will not reach the overlay")
		} else {
			if rbErr := a.ops.SetClickThrough(a.window, false); rbErr != nil {
				a.logger.Warn("click-through rollback failed: %v", rbErr)
			}
			return NewOperationError("lock", err)
		}
	}

	a.locked = true
	a.persistLocked(true)
	a.publishLockChanged(true)
	a.logger.Info("overlay locked")
	return nil
}

// Unlock switches the overlay back to interactive mode and stops the
// scroll forwarder. Unlocking an unlocked overlay is a no-op.
func (a *Application) Unlock() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.locked {
		return nil
	}

	if err := a.fwd.Uninstall(); err != nil {
		a.logger.Warn("scroll forwarder uninstall failed: %v", err)
	}
	if err := a.ops.SetClickThrough(a.window, false); err != nil {
		return NewOperationError("unlock", err)
	}

	a.locked = false
	a.persistLocked(false)
	a.publishLockChanged(false)
	a.logger.Info("overlay unlocked")
	return nil
}

// Locked reports whether the overlay is in click-through mode.
func (a *Application) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked
}

func (a *Application) persistLocked(locked bool) {
	if err := a.cfg.SetLocked(locked); err != nil {
		a.logger.Warn("recording lock state failed: %v", err)
		return
	}
	if err := a.cfg.Save(); err != nil {
		a.logger.Warn("saving settings failed: %v", err)
	}
}

func (a *Application) publishLockChanged(locked bool) {
	ev := event.New(TopicLockChanged, locked, "app")
	if err := a.bus.PublishAsync(context.Background(), ev); err != nil {
		a.logger.Warn("lock change event dropped: %v", err)
	}
}

// CheckForUpdates queries the latest release and reports whether it is
// newer than the running version. A newer release is also announced on
// the bus as TopicUpdateAvailable.
func (a *Application) CheckForUpdates(ctx context.Context) (*update.Release, bool, error) {
	a.mu.Lock()
	if a.checker == nil {
		a.checker = update.NewChecker(a.version)
	}
	checker := a.checker
	a.mu.Unlock()

	rel, newer, err := checker.Check(ctx)
	if err != nil {
		return nil, false, NewOperationError("check-updates", err)
	}
	if newer {
		a.logger.Info("update available: %s", rel.Version)
		ev := event.New(TopicUpdateAvailable, rel, "update.checker")
		if err := a.bus.PublishAsync(ctx, ev); err != nil {
			a.logger.Warn("update event dropped: %v", err)
		}
	}
	return rel, newer, nil
}

// Shutdown tears everything down: both hooks, the settings watcher, and
// the event bus. ctx bounds the bus drain.
func (a *Application) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return ErrNotRunning
	}

	if err := a.watcher.Uninstall(); err != nil {
		a.logger.Warn("keyboard watcher uninstall failed: %v", err)
	}
	if err := a.fwd.Uninstall(); err != nil {
		a.logger.Warn("scroll forwarder uninstall failed: %v", err)
	}
	if a.cfgWatcher != nil {
		if err := a.cfgWatcher.Close(); err != nil {
			a.logger.Warn("settings watcher close failed: %v", err)
		}
		a.cfgWatcher = nil
	}
	if a.unlockSub != nil {
		if err := a.bus.Unsubscribe(a.unlockSub); err != nil {
			a.logger.Warn("unlock subscription removal failed: %v", err)
		}
		a.unlockSub = nil
	}
	a.running = false
	a.locked = false
	a.mu.Unlock()

	// Stopped outside the lock: in-flight deliveries (the unlock handler
	// among them) may still need it before the drain completes.
	err := a.bus.Stop(ctx)
	a.logger.Info("application stopped")
	if err != nil {
		return NewOperationError("shutdown", err)
	}
	return nil
}
