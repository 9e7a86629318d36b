package utils

import "runtime/debug"

// unknownVersion is reported when no version is recorded in build info.
const unknownVersion = "unknown"

// GetApplicationVersion returns the module version recorded by the Go
// toolchain, or "unknown" for development builds.
func GetApplicationVersion() string {
	buildInformation, buildInformationAvailable := debug.ReadBuildInfo()
	if !buildInformationAvailable {
		return unknownVersion
	}
	moduleVersion := buildInformation.Main.Version
	if moduleVersion == "" || moduleVersion == "(devel)" {
		return unknownVersion
	}
	return moduleVersion
}
