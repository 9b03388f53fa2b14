package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/setavenger/utxo-dump/internal/types"
)

// StatusProvider hands out a consistent copy of the run counters.
type StatusProvider interface {
	Snapshot() types.Counters
}

type ApiHandler struct {
	status  StatusProvider
	network string
	backend string
}

func NewApiHandler(status StatusProvider, network, backend string) *ApiHandler {
	return &ApiHandler{status: status, network: network, backend: backend}
}

type StatusResponse struct {
	Network  string         `json:"network"`
	Backend  string         `json:"backend"`
	Counters types.Counters `json:"counters"`
}

func (h *ApiHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Network:  h.network,
		Backend:  h.backend,
		Counters: h.status.Snapshot(),
	})
}
