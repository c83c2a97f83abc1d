package scene

import "errors"

var (
	// ErrDuplicateID is returned when adding a shape under an id already in the scene.
	ErrDuplicateID = errors.New("scene: duplicate id")

	// ErrUnknownID is returned when an operation names an id that is not in the scene.
	ErrUnknownID = errors.New("scene: unknown id")

	// ErrInvalidScale is returned by SetScale for factors that are not finite and > 0.
	ErrInvalidScale = errors.New("scene: invalid scale")

	// ErrNilShape is returned when a nil shape is added or swapped in.
	ErrNilShape = errors.New("scene: nil shape")
)
