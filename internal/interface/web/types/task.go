package types

type Funding struct {
	Funder string `json:"funder"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type AssetAmount struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type Task struct {
	Index              uint64        `json:"index"`
	Url                string        `json:"url"`
	Reviewer           string        `json:"reviewer"`
	ReviewerPercentage uint8         `json:"reviewerPercentage"`
	ApprovedWorker     string        `json:"approvedWorker"`
	Status             string        `json:"status"` // "open", "approved", "canceled", "complete"
	Approved           bool          `json:"approved"`
	Canceled           bool          `json:"canceled"`
	Complete           bool          `json:"complete"`
	CreatedAt          int64         `json:"createdAt"`
	Funding            []Funding     `json:"funding"`
	Totals             []AssetAmount `json:"totals"`
}

type TaskList struct {
	Tasks []Task `json:"tasks"`
	Total uint64 `json:"total"`
}

type TaskFunding struct {
	Assets []string `json:"assets"`
	Totals []string `json:"totals"`
}

// FundingRequest carries amounts as decimal strings. AttachedValue is the
// native value sent along with the call, and must equal Amount when funding
// with the native asset.
type FundingRequest struct {
	Amount        string `json:"amount" binding:"required"`
	Asset         string `json:"asset" binding:"required"`
	AttachedValue string `json:"attachedValue"`
}

type CreateTaskRequest struct {
	Url                string          `json:"url"`
	Reviewer           string          `json:"reviewer" binding:"required"`
	ReviewerPercentage uint8           `json:"reviewerPercentage"`
	Funding            *FundingRequest `json:"funding,omitempty"`
}

type CreateTaskResponse struct {
	Index uint64 `json:"index"`
}

type SubmitWorkRequest struct {
	WorkUrl string `json:"workUrl" binding:"required"`
}

type WorkerRequest struct {
	Worker string `json:"worker" binding:"required"`
}
