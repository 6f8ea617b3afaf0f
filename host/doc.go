// Package host sequences the lifecycle of a set of plugins.
//
// A Host owns one plugin.Registry per application instance. Plugins are
// added with Use and started in that order: every InitApp first, then every
// Init. If an Init fails the plugins already running are terminated in
// reverse order and Start returns the failure. Stop terminates all plugins
// in reverse order.
//
//	h := host.New(host.Config{Middleware: mw})
//	_ = h.Use(redis.New("cache"), redis.Config{Type: redis.TypeRedis, Host: "redis"})
//	_ = h.Use(control.New("control"), nil)
//	if err := h.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package host
