//go:build !debug

package actions

// Debug is the build-time switch selecting the local development origin.
// Build with -tags debug to turn it on.
const Debug = false
