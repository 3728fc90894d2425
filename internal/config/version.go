package config

// Version is the mindmap binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/mindmap/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
