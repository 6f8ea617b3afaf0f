// Package plugin defines the lifecycle contract for managed subsystems.
//
// A Plugin wraps exactly one external resource (a cache connection, a job
// scheduler, a metric store) and moves through a small state machine:
//
//	Uninitialized --InitApp--> Configured --Init--> Running --Terminate--> Terminated
//	                                ^                                          |
//	                                +------------------InitApp-----------------+
//
// InitApp binds a typed configuration and registers the plugin into a
// Registry. Init acquires the resource. The capability accessor
// (Base.Resource) only succeeds while the plugin is Running. Terminate
// releases the resource and is always safe to call.
//
// # Basic Usage
//
//	reg := plugin.NewRegistry()
//	p := redis.New()
//	if err := p.InitApp(reg, redis.Settings{Host: "cache"}); err != nil {
//	    return err
//	}
//	if err := p.Init(ctx); err != nil {
//	    return err
//	}
//	defer p.Terminate(ctx)
//
// # Writing a Plugin
//
// Most plugins embed *Base and supply acquire/release hooks:
//
//	type Plugin struct {
//	    *plugin.Base[Settings, *Client]
//	}
//
//	func New() *Plugin {
//	    p := &Plugin{}
//	    p.Base = plugin.NewBase("mything", DefaultSettings, plugin.Hooks[Settings, *Client]{
//	        Acquire: connect,
//	        Release: func(ctx context.Context, c *Client) error { return c.Close() },
//	    })
//	    return p
//	}
//
// Init on the same instance must not be called concurrently; the host is
// expected to serialize lifecycle calls.
package plugin
