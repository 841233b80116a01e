// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package modpack resolves a manifest of Modrinth projects into the exact
// artifacts a server needs and records them in a lockfile.
//
// A manifest lists projects per [Loader]:
//
//	[fabric]
//	fabric-api = "*"
//	lithium = "mc1.21.1-0.13.0"
//	opentelemetry = { version = "1.2.0" }
//
// A value of "*" accepts any version compatible with the Minecraft version.
package modpack
