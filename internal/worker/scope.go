package worker

import "transmute/internal/service"

// PublicServices are visible to every action.
var PublicServices = []string{service.Logger, service.Workspace, service.Clock}

// PublicServicesBuilder builds the service scope of one execution from the
// daemon's internal services. The internal subset is reachable only when the
// spec declared it needs it.
type PublicServicesBuilder struct {
	internal        service.Registry
	internalVisible bool
}

func NewPublicServicesBuilder(internal service.Registry) *PublicServicesBuilder {
	return &PublicServicesBuilder{internal: internal}
}

func (b *PublicServicesBuilder) WithInternalServicesVisible(visible bool) *PublicServicesBuilder {
	b.internalVisible = visible
	return b
}

func (b *PublicServicesBuilder) Build() service.Registry {
	sb := service.NewBuilder().ProvideFrom(b.internal, PublicServices...)
	if b.internalVisible {
		sb.Parent(b.internal)
	}
	return sb.Build()
}
