package ports

// ConfigUpdateListener is notified synchronously after every mutating
// operation on the config store. The coordinator holds a single listener
// slot; registering overwrites any previous registration.
type ConfigUpdateListener interface {
	OnConfigUpdate()
}

// ConfigUpdateListenerFunc adapts a plain function to the listener port.
type ConfigUpdateListenerFunc func()

func (f ConfigUpdateListenerFunc) OnConfigUpdate() {
	f()
}
