package web

import (
	"net/http"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/application"
	"github.com/gin-gonic/gin"
)

const defaultHeartbeatInterval = 15 * time.Second

type service struct {
	svc               *application.Service
	stopCh            <-chan struct{}
	heartbeatInterval time.Duration
}

// NewService returns the HTTP handler exposing the ledger under /v1. Closing
// stopCh ends every open event stream.
func NewService(
	appSvc *application.Service, stopCh <-chan struct{}, sentryEnabled bool,
) http.Handler {
	return newRouter(&service{appSvc, stopCh, defaultHeartbeatInterval}, sentryEnabled)
}

func newRouter(s *service, sentryEnabled bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), loggerMiddleware())
	if sentryEnabled {
		router.Use(sentryMiddleware())
	}

	v1 := router.Group("/v1")

	// reads
	v1.GET("/info", s.getInfo)
	v1.GET("/governance", s.getGovernance)
	v1.GET("/tasks", s.listTasks)
	v1.GET("/tasks/:index", s.getTask)
	v1.GET("/tasks/:index/funding", s.getTaskFunding)
	v1.GET("/tracked/:asset", s.getTrackedBalance)
	v1.GET("/events", s.streamEvents)

	// everything else acts on behalf of the caller
	authed := v1.Group("", callerMiddleware())
	authed.GET("/balances/:asset", s.getWithdrawableBalance)
	authed.POST("/tasks", s.createTask)
	authed.POST("/tasks/:index/fund", s.fundTask)
	authed.POST("/tasks/:index/submit", s.submitWork)
	authed.POST("/tasks/:index/approve", s.approveTask)
	authed.POST("/tasks/:index/worker", s.setApprovedWorker)
	authed.POST("/tasks/:index/cancel", s.cancelTask)
	authed.POST("/tasks/:index/finalize", s.finalizeTask)
	authed.POST("/withdraw", s.withdraw)

	gov := authed.Group("/governance")
	gov.POST("/take-rate", s.adjustTakeRate)
	gov.POST("/max-take-rate", s.lowerMaxTakeRate)
	gov.POST("/unlock-period", s.adjustUnlockPeriod)
	gov.POST("/stuck-tokens", s.withdrawStuckTokens)

	return router
}
