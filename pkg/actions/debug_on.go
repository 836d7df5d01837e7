//go:build debug

package actions

// Debug is the build-time switch selecting the local development origin.
const Debug = true
