package sessionshard

// Version is the release of the module, set at build time with
// -ldflags "-X github.com/aretw0/sessionshard.Version=v1.2.3".
var Version = "dev"
