package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/interface/web/types"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (s *service) getInfo(c *gin.Context) {
	gov, err := s.svc.GetGovernance(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.Info{
		Version:    s.svc.BuildInfo.Version,
		Commit:     s.svc.BuildInfo.Commit,
		Date:       s.svc.BuildInfo.Date,
		Governance: toGovernance(*gov),
	})
}

func (s *service) getGovernance(c *gin.Context) {
	gov, err := s.svc.GetGovernance(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGovernance(*gov))
}

func (s *service) listTasks(c *gin.Context) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid offset"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid limit"))
		return
	}

	ctx := c.Request.Context()
	tasks, err := s.svc.ListTasks(ctx, offset, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	total, err := s.svc.TaskCount(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	list := types.TaskList{Tasks: make([]types.Task, 0, len(tasks)), Total: total}
	for _, task := range tasks {
		list.Tasks = append(list.Tasks, toTask(task))
	}
	c.JSON(http.StatusOK, list)
}

func (s *service) getTask(c *gin.Context) {
	index, err := parseIndex(c.Param("index"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	task, err := s.svc.GetTask(c.Request.Context(), index)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTask(*task))
}

func (s *service) getTaskFunding(c *gin.Context) {
	index, err := parseIndex(c.Param("index"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	assets, totals, err := s.svc.GetTaskFunding(c.Request.Context(), index)
	if err != nil {
		abortWithError(c, err)
		return
	}

	funding := types.TaskFunding{
		Assets: make([]string, 0, len(assets)),
		Totals: make([]string, 0, len(totals)),
	}
	for i, asset := range assets {
		funding.Assets = append(funding.Assets, asset.String())
		funding.Totals = append(funding.Totals, formatAmount(totals[i]))
	}
	c.JSON(http.StatusOK, funding)
}

func (s *service) getTrackedBalance(c *gin.Context) {
	asset := domain.NewAsset(c.Param("asset"))
	amount, err := s.svc.GetTrackedBalance(c.Request.Context(), asset)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.Balance{Asset: asset.String(), Amount: formatAmount(amount)})
}

func (s *service) getWithdrawableBalance(c *gin.Context) {
	caller := getCaller(c)
	asset := domain.NewAsset(c.Param("asset"))
	amount, err := s.svc.GetWithdrawableBalance(c.Request.Context(), caller, asset)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.Balance{
		Beneficiary: caller.String(),
		Asset:       asset.String(),
		Amount:      formatAmount(amount),
	})
}

func (s *service) createTask(c *gin.Context) {
	var req types.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		ctx      = c.Request.Context()
		caller   = getCaller(c)
		reviewer = domain.NewAddress(req.Reviewer)
		index    uint64
		err      error
	)
	if req.Funding == nil {
		index, err = s.svc.CreateTask(ctx, caller, req.Url, reviewer, req.ReviewerPercentage)
	} else {
		var amount, attachedValue uint64
		if amount, attachedValue, err = parseFunding(*req.Funding); err == nil {
			index, err = s.svc.CreateAndFundTask(
				ctx, caller, req.Url, reviewer, req.ReviewerPercentage,
				amount, domain.NewAsset(req.Funding.Asset), attachedValue,
			)
		}
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.CreateTaskResponse{Index: index})
}

func (s *service) fundTask(c *gin.Context) {
	index, err := parseIndex(c.Param("index"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req types.FundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, attachedValue, err := parseFunding(req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.svc.FundTask(
		c.Request.Context(), getCaller(c), index, amount, domain.NewAsset(req.Asset), attachedValue,
	); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *service) submitWork(c *gin.Context) {
	index, err := parseIndex(c.Param("index"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req types.SubmitWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.svc.SubmitWork(c.Request.Context(), getCaller(c), index, req.WorkUrl); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *service) approveTask(c *gin.Context) {
	s.changeWorker(c, s.svc.ApproveTask)
}

func (s *service) setApprovedWorker(c *gin.Context) {
	s.changeWorker(c, s.svc.SetApprovedWorker)
}

func (s *service) changeWorker(
	c *gin.Context,
	fn func(ctx context.Context, caller domain.Address, index uint64, worker domain.Address) error,
) {
	index, err := parseIndex(c.Param("index"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req types.WorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := fn(
		c.Request.Context(), getCaller(c), index, domain.NewAddress(req.Worker),
	); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *service) cancelTask(c *gin.Context) {
	index, err := parseIndex(c.Param("index"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := s.svc.CancelTask(c.Request.Context(), getCaller(c), index); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *service) finalizeTask(c *gin.Context) {
	index, err := parseIndex(c.Param("index"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := s.svc.FinalizeTask(c.Request.Context(), getCaller(c), index); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *service) withdraw(c *gin.Context) {
	var req types.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.svc.Withdraw(
		c.Request.Context(), getCaller(c), amount, domain.NewAsset(req.Asset),
	); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *service) adjustTakeRate(c *gin.Context) {
	var req types.TakeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.AdjustTakeRate(c.Request.Context(), getCaller(c), *req.Rate); err != nil {
		abortWithError(c, err)
		return
	}
	s.getGovernance(c)
}

func (s *service) lowerMaxTakeRate(c *gin.Context) {
	var req types.TakeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.PermanentlyLowerMaxTakeRate(
		c.Request.Context(), getCaller(c), *req.Rate,
	); err != nil {
		abortWithError(c, err)
		return
	}
	s.getGovernance(c)
}

func (s *service) adjustUnlockPeriod(c *gin.Context) {
	var req types.UnlockPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	period, err := time.ParseDuration(req.UnlockPeriod)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid unlock period %q", req.UnlockPeriod))
		return
	}
	if err := s.svc.AdjustUnlockPeriod(c.Request.Context(), getCaller(c), period); err != nil {
		abortWithError(c, err)
		return
	}
	s.getGovernance(c)
}

func (s *service) withdrawStuckTokens(c *gin.Context) {
	var req types.StuckTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	asset := domain.NewAsset(req.Asset)
	amount, err := s.svc.WithdrawStuckTokens(c.Request.Context(), getCaller(c), asset)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.Balance{Asset: asset.String(), Amount: formatAmount(amount)})
}

// streamEvents relays ledger events as server-sent events until the client
// goes away or the ledger stops.
func (s *service) streamEvents(c *gin.Context) {
	events, unsubscribe := s.svc.SubscribeEvents()
	defer unsubscribe()

	heartbeat := time.NewTicker(s.heartbeatInterval)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("subscribed", gin.H{})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-s.stopCh:
			return false
		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"timestamp": time.Now().Unix()})
			return true
		case event, ok := <-events:
			if !ok {
				log.Debug("event stream closed, ledger stopped")
				return false
			}
			c.SSEvent(event.Type.String(), toEvent(event))
			return true
		}
	})
}

func parseFunding(req types.FundingRequest) (amount, attachedValue uint64, err error) {
	if amount, err = parseAmount(req.Amount); err != nil {
		return 0, 0, err
	}
	if attachedValue, err = parseAmount(req.AttachedValue); err != nil {
		return 0, 0, err
	}
	return amount, attachedValue, nil
}
