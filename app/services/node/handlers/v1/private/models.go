package private

import "github.com/ardanlabs/voteledger/business/sys/validate"

// The account fields accept either a hex encoded account or a name known to
// the name service.

type mintRequest struct {
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required,amount"`
}

// Validate checks the data in the model is considered clean.
func (m mintRequest) Validate() error {
	return validate.Check(m)
}

type burnRequest struct {
	From   string `json:"from" validate:"required"`
	Amount string `json:"amount" validate:"required,amount"`
}

// Validate checks the data in the model is considered clean.
func (m burnRequest) Validate() error {
	return validate.Check(m)
}

type transferRequest struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required,amount"`
}

// Validate checks the data in the model is considered clean.
func (m transferRequest) Validate() error {
	return validate.Check(m)
}

// An empty delegatee removes the delegation.
type delegateRequest struct {
	Account   string `json:"account" validate:"required"`
	Delegatee string `json:"delegatee"`
}

// Validate checks the data in the model is considered clean.
func (m delegateRequest) Validate() error {
	return validate.Check(m)
}

type mineResponse struct {
	Index uint64 `json:"index"`
}
