package app

import "github.com/screenprompt/screenprompt/internal/event"

// Event topics published by the application.
const (
	// TopicEmergencyUnlock fires when the panic key is pressed while the
	// overlay is locked. The payload is nil.
	TopicEmergencyUnlock event.Topic = "overlay.emergency-unlock"

	// TopicLockChanged fires after the overlay's click-through state
	// changes. The payload is a bool holding the new state.
	TopicLockChanged event.Topic = "overlay.lock-changed"

	// TopicConfigReloaded fires after the settings file changed on disk
	// and was reloaded. The payload is the *config.Config.
	TopicConfigReloaded event.Topic = "config.reloaded"

	// TopicUpdateAvailable fires when a newer release is found. The
	// payload is the *update.Release.
	TopicUpdateAvailable event.Topic = "update.available"
)
