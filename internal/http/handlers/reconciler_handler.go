package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklance/worklance-backend/internal/http/handlers/common"
	"github.com/worklance/worklance-backend/internal/service"
)

// ReconcilerHandler запускает цикл авторелиза по внутреннему запросу.
// Основной режим работы цикла — периодический фон, ручной запуск нужен
// операторам для внеочередной сверки.
type ReconcilerHandler struct {
	reconciler *service.ReconcilerService
}

// NewReconcilerHandler создаёт хэндлер.
func NewReconcilerHandler(reconciler *service.ReconcilerService) *ReconcilerHandler {
	return &ReconcilerHandler{reconciler: reconciler}
}

// Run обрабатывает POST /internal/reconciler/run.
func (h *ReconcilerHandler) Run(c *gin.Context) {
	report, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
