package model

import (
	"context"

	"github.com/jacoelho/xsdmodel/internal/kind"
)

// DirectiveRequest describes a directive to resolve into a model.
type DirectiveRequest struct {
	// Base is the identity of the model that contains the directive.
	Base string
	// Location is the schemaLocation attribute value, possibly empty.
	Location string
	// Namespace is the namespace attribute of an import.
	Namespace string
	// HasNamespace reports whether the import carries a namespace attribute.
	HasNamespace bool
	Kind         kind.Kind
}

// Source locates and loads the models that directives point to. A registry
// implements it; every model it returns is the unique model for its
// identity.
type Source interface {
	ResolveDirective(ctx context.Context, req DirectiveRequest) (*Model, error)
	// Builtins returns the shared model declaring the built-in types.
	Builtins() *Model
	// Models returns the live models, used to find chameleon hosts.
	Models() []*Model
}
