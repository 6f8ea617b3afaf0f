// Package config loads plugin and host settings.
//
// Settings are plain structs with yaml and env tags. Load reads a YAML
// file, expands ${VAR} references strictly, resolves secretref: values
// through a secret.Resolver and finally applies environment overrides:
//
//	type Settings struct {
//	    Redis redis.Config `yaml:"redis" envPrefix:"REDIS_"`
//	}
//	var s Settings
//	err := config.Load(ctx, "plugind.yaml", &s, config.WithEnvPrefix("PLUGIND_"))
//
// A Manager holds named settings factories ("docker", "local", "test") and
// picks one by the CONFIG_NAME environment variable.
package config
