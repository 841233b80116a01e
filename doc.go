// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package minecraft provides the composable building blocks used by the
// Minecraft server tooling in this module.
//
// The package is built around three core abstractions:
//
//   - Builder[T]: constructs a component with context support
//   - Runtime: a runnable component e.g. the server launcher
//   - Runner[T]: builds and runs a Runtime
//
// # Functional Composition
//
//   - Map: transform builder outputs
//   - Bind: chain builders, letting the output of one decide the next
//   - MemoizeBuilder: share a single built value between builders
//
// # Basic Usage
//
//	runtime := minecraft.Map(
//	    minecraft.BuilderOf(server.Command{Path: "java", Args: []string{"-jar", "server.jar", "nogui"}}),
//	    func(ctx context.Context, cmd server.Command) (minecraft.Runtime, error) {
//	        return server.NewRuntime(cmd), nil
//	    },
//	)
//
//	runner := minecraft.RecoverPanics(
//	    minecraft.NotifyOnSignal(
//	        minecraft.DefaultRunner[minecraft.Runtime](),
//	        os.Interrupt,
//	    ),
//	)
//	if err := runner.Run(context.Background(), runtime); err != nil {
//	    log.Fatal(err)
//	}
package minecraft
