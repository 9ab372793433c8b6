package version

// Version is the current version of rdisk.
// Bump on every release that changes behaviour.
// Use semantic versioning: MAJOR.MINOR.PATCH
const Version = "0.4.0"
