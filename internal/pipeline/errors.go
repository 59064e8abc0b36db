package pipeline

import "github.com/rotisserie/eris"

// ErrMissingQuery is returned when a parse request carries no description
// text. Surfaced to the caller as a client error; everything downstream
// of input validation soft-fails instead.
var ErrMissingQuery = eris.New("pipeline: query description is required")
