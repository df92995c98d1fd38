package config

// Version is the orienteer binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/orienteer/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
