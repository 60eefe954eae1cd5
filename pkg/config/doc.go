// Package config loads typed configuration structs from the environment.
//
//	var cfg cache.Config
//	config.MustLoad(&cfg)
//
// Fields are declared with env/envDefault tags next to the package that
// consumes them; this package only provides the loading and per-type
// caching. A local .env file is folded into the environment once per
// process.
package config
