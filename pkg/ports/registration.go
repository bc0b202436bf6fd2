package ports

import "github.com/aretw0/tendril/pkg/domain"

// Decision is the answer of a RegistrationHandler for one command.
type Decision int

const (
	// Proceed lets the registration (or removal) go ahead.
	Proceed Decision = iota
	// Skip leaves this command out without failing the rest of the batch.
	Skip
)

func (d Decision) String() string {
	if d == Skip {
		return "skip"
	}
	return "proceed"
}

// RegistrationHandler is called once per command before it is published to,
// or removed from, the command graph.
type RegistrationHandler interface {
	OnRegister(cmd *domain.Command) Decision
	OnUnregister(cmd *domain.Command) Decision
}

// RegistrationFuncs adapts optional functions to a RegistrationHandler.
// A nil function answers Proceed.
type RegistrationFuncs struct {
	Register   func(cmd *domain.Command) Decision
	Unregister func(cmd *domain.Command) Decision
}

func (f RegistrationFuncs) OnRegister(cmd *domain.Command) Decision {
	if f.Register == nil {
		return Proceed
	}
	return f.Register(cmd)
}

func (f RegistrationFuncs) OnUnregister(cmd *domain.Command) Decision {
	if f.Unregister == nil {
		return Proceed
	}
	return f.Unregister(cmd)
}
