// Package utils holds small helpers shared by gongwen packages that do not
// warrant a package of their own.
package utils

import "runtime"

// Build information, overridden at link time with -ldflags "-X ...".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies gongwen to the backend, e.g. "gongwen/1.2.0 (linux/amd64)".
func UserAgent() string {
	return "gongwen/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
