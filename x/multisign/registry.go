package multisign

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// Registry is the fixed set of owners and the number of confirmations
// required to execute a transaction.
type Registry struct {
	owners    []quorum.Address
	index     map[string]struct{}
	threshold uint32
}

// NewRegistry returns a registry or ErrInvalidConfiguration if the owner
// list is empty, holds duplicates or invalid addresses, or the threshold is
// not within 1 and the number of owners.
func NewRegistry(owners []quorum.Address, threshold uint32) (*Registry, error) {
	if len(owners) == 0 {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no owners")
	}
	if threshold == 0 {
		return nil, errors.Wrap(ErrInvalidConfiguration, "threshold must be greater than zero")
	}
	if int64(threshold) > int64(len(owners)) {
		return nil, errors.Wrapf(ErrInvalidConfiguration,
			"threshold %d is greater than %d owners", threshold, len(owners))
	}

	r := Registry{
		owners:    make([]quorum.Address, 0, len(owners)),
		index:     make(map[string]struct{}, len(owners)),
		threshold: threshold,
	}
	for i, o := range owners {
		if err := o.Validate(); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "owner #%d: %s", i, err)
		}
		if o.IsZero() {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "owner #%d is the zero address", i)
		}
		if _, ok := r.index[string(o)]; ok {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "duplicated owner %s", o)
		}
		r.index[string(o)] = struct{}{}
		r.owners = append(r.owners, o.Clone())
	}
	return &r, nil
}

// IsOwner returns true if given address belongs to the owner set.
func (r *Registry) IsOwner(addr quorum.Address) bool {
	_, ok := r.index[string(addr)]
	return ok
}

// OwnerCount returns the number of owners.
func (r *Registry) OwnerCount() int {
	return len(r.owners)
}

// Threshold returns the number of confirmations required for execution.
func (r *Registry) Threshold() uint32 {
	return r.threshold
}

// Owners returns a copy of the owner list in construction order.
func (r *Registry) Owners() []quorum.Address {
	res := make([]quorum.Address, len(r.owners))
	for i, o := range r.owners {
		res[i] = o.Clone()
	}
	return res
}

func (r *Registry) requireOwner(addr quorum.Address) error {
	if !r.IsOwner(addr) {
		return errors.Wrapf(ErrNotAnOwner, "%s", addr)
	}
	return nil
}
