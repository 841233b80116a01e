// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides a functional approach to reading and composing configuration values.
//
// A [Reader] represents a source of a configuration [Value] which may or may not
// be present. Readers compose with [Or], [Default], [Map] and [Bind].
//
// Read the Minecraft version with a default:
//
//	version, err := config.Read(ctx,
//	    config.Default("1.21.1", config.Env("MINECRAFT_VERSION")),
//	)
//
// Decode an optional launcher config file:
//
//	cfg, err := config.Read(ctx,
//	    config.Default(LauncherConfig{}, config.Yaml[LauncherConfig](config.ReadFile(path))),
//	)
//
// Readers distinguish between three states:
//   - Value is set
//   - Value is not set (no error)
//   - Error occurred
//
// [Read] converts "not set" to [ErrValueNotSet].
package config
