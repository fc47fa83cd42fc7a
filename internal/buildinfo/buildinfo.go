// Package buildinfo holds version metadata stamped in at link time via
// -ldflags, the same seam the teacher's internal/cli/root.go already
// expected (rootCmd.Version = buildinfo.Version) before this module
// existed in the retrieval slice.
package buildinfo

// Version is overridden at build time with -ldflags
// "-X github.com/nghyane/llm-gw/internal/buildinfo.Version=...".
var Version = "dev"
