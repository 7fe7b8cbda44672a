package memory

import (
	"ledgerd/internal/service/auth"
	"ledgerd/internal/service/movement"
	"ledgerd/internal/service/refdata"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ auth.Repo       = (*Store)(nil)
	_ auth.Writer     = (*Store)(nil)
	_ refdata.Repo    = (*Store)(nil)
	_ refdata.Writer  = (*Store)(nil)
	_ movement.Repo   = (*Store)(nil)
	_ movement.Writer = (*Store)(nil)
)
