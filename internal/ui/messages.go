// Package ui provides the Bubble Tea TUI for the gallery.
package ui

import "github.com/abelbrown/gallery/internal/gallery"

// PhotosLoaded is sent when a fetch issued by the controller finishes,
// successfully or not. The controller decides whether it is still wanted.
type PhotosLoaded struct {
	Result gallery.Result
}
