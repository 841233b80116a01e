// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package modpack

import "fmt"

// Loader is the platform a Modrinth version targets.
type Loader int

const (
	Datapack Loader = iota
	Fabric
)

// Loaders lists every supported [Loader] in processing order.
var Loaders = []Loader{Datapack, Fabric}

// String implements the [fmt.Stringer] interface.
func (l Loader) String() string {
	switch l {
	case Datapack:
		return "datapack"
	case Fabric:
		return "fabric"
	default:
		return fmt.Sprintf("Loader(%d)", int(l))
	}
}

// UnknownLoaderError is returned when parsing an unsupported loader name.
type UnknownLoaderError struct {
	Name string
}

// Error implements the [error] interface.
func (e UnknownLoaderError) Error() string {
	return fmt.Sprintf("unknown loader: %q", e.Name)
}

// ParseLoader returns the [Loader] with the given name.
func ParseLoader(name string) (Loader, error) {
	for _, l := range Loaders {
		if l.String() == name {
			return l, nil
		}
	}
	return 0, UnknownLoaderError{Name: name}
}

// MarshalText implements the [encoding.TextMarshaler] interface.
func (l Loader) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (l *Loader) UnmarshalText(b []byte) error {
	loader, err := ParseLoader(string(b))
	if err != nil {
		return err
	}
	*l = loader
	return nil
}
