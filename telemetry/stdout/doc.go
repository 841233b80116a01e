// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package stdout provides builders for exporters which write telemetry
// to an [io.Writer] in a human-readable format. They are handy while
// developing a server setup locally.
package stdout
