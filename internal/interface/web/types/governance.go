package types

type Governance struct {
	Owner        string `json:"owner"`
	Vault        string `json:"vault"`
	TakeRate     uint32 `json:"takeRate"`
	MaxTakeRate  uint32 `json:"maxTakeRate"`
	UnlockPeriod string `json:"unlockPeriod"`
}

type Info struct {
	Version    string     `json:"version"`
	Commit     string     `json:"commit"`
	Date       string     `json:"date"`
	Governance Governance `json:"governance"`
}

// TakeRateRequest is used both to adjust the take rate and to lower its
// ceiling. Rates are in thousandths.
type TakeRateRequest struct {
	Rate *uint32 `json:"rate" binding:"required"`
}

type UnlockPeriodRequest struct {
	UnlockPeriod string `json:"unlockPeriod" binding:"required"` // e.g. "72h"
}

type StuckTokensRequest struct {
	Asset string `json:"asset" binding:"required"`
}
