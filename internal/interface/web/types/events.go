package types

type TaskEvent struct {
	Index    uint64 `json:"index"`
	Url      string `json:"url,omitempty"`
	Reviewer string `json:"reviewer,omitempty"`
	Worker   string `json:"worker,omitempty"`
	Asset    string `json:"asset,omitempty"`
	Amount   string `json:"amount,omitempty"`
}

type GovernanceEvent struct {
	TakeRate     uint32 `json:"takeRate"`
	MaxTakeRate  uint32 `json:"maxTakeRate"`
	UnlockPeriod string `json:"unlockPeriod"`
}

type Event struct {
	Id         string           `json:"id"`
	Type       string           `json:"type"`
	Timestamp  int64            `json:"timestamp"`
	Caller     string           `json:"caller"`
	Task       *TaskEvent       `json:"task,omitempty"`
	Transfer   *Balance         `json:"transfer,omitempty"`
	Governance *GovernanceEvent `json:"governance,omitempty"`
}
