package plugin

// State is the lifecycle state of a plugin.
type State int

const (
	// StateUninitialized is the state of a freshly constructed plugin.
	StateUninitialized State = iota
	// StateConfigured means a configuration is bound and the plugin is registered.
	StateConfigured
	// StateRunning means the resource is acquired and the accessor is usable.
	StateRunning
	// StateTerminated means the resource was released. The plugin may be configured again.
	StateTerminated
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
