package types

type Balance struct {
	Beneficiary string `json:"beneficiary,omitempty"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
}

type WithdrawRequest struct {
	Amount string `json:"amount" binding:"required"`
	Asset  string `json:"asset" binding:"required"`
}
