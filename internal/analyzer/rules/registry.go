package rules

import "github.com/lexilight/dbmigrate/internal/analyzer"

// NewDefaultRegistry returns a Registry with all built-in guard rules.
func NewDefaultRegistry() *analyzer.Registry {
	r := analyzer.NewRegistry()
	r.Register(NewCreateGuardRule())
	r.Register(NewCreateIndexRule())
	r.Register(NewAddColumnRule())
	r.Register(NewAddConstraintRule())
	r.Register(NewDropGuardRule())
	r.Register(NewReplaceRule())
	r.Register(NewCreateTypeRule())
	r.Register(NewRenameRule())
	r.Register(NewNonTransactionalRule())

	return r
}
