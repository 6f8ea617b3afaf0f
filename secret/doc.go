// Package secret resolves environment variables and secret references in
// configuration values before they are decoded.
//
// A Resolver first expands ${VAR} strictly (see ExpandEnvStrict), then
// replaces secret references through its providers. The built-in providers
// are "env", "file" (mounted secrets such as /run/secrets) and a map-backed
// StaticProvider; a Registry creates providers by name from options.
//
// References use the prefix "secretref:":
//
//	secretref:file:redis_password
//	redis://:secretref:env:REDIS_PASSWORD@redis:6379/0
package secret
