// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package modrinth is a client for the subset of the Modrinth v2 REST API
// needed to resolve and download server mods and datapacks.
package modrinth
