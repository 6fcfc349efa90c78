package idgen

import "github.com/google/uuid"

// New returns a new globally unique identifier as string. Task ids and
// notification message refs both come from here; tests stub NewFunc to get
// predictable ids.

var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }
