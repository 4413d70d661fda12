package dto

import "github.com/Temutjin2k/fleet-ledger/pkg/validator"

type PayoutRequest struct {
	Amount *float64 `json:"amount" example:"25.5"`
}

func (r *PayoutRequest) Validate(v *validator.Validator) {
	v.Check(r.Amount != nil, "amount", "must be provided")
}
