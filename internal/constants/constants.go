// Package constants holds names shared by the command and its packages.
package constants

import "runtime"

// Version is printed by --version
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// AppName names the config and data directories
const AppName = "ephem"
