package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/worklance/worklance-backend/internal/http/handlers/common"
	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/repository"
	"github.com/worklance/worklance-backend/internal/storage"
)

// Разрешённые типы файлов результата: архивы, документы и изображения.
var allowedDeliverableMimeTypes = map[string]bool{
	"application/zip":              true,
	"application/gzip":             true,
	"application/x-tar":            true,
	"application/x-7z-compressed":  true,
	"application/pdf":              true,
	"image/jpeg":                   true,
	"image/png":                    true,
	"image/gif":                    true,
	"image/webp":                   true,
	"application/vnd.rar":          true,
	"application/x-rar-compressed": true,
}

// Разрешённые расширения файлов результата
var allowedDeliverableExtensions = map[string]bool{
	".zip":  true,
	".gz":   true,
	".tar":  true,
	".7z":   true,
	".rar":  true,
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// DeliverableHandler управляет загрузкой файлов результата работы.
type DeliverableHandler struct {
	repo    *repository.DeliverableRepository
	storage *storage.DeliverableStorage
}

// NewDeliverableHandler создаёт новый хэндлер.
func NewDeliverableHandler(repo *repository.DeliverableRepository, storage *storage.DeliverableStorage) *DeliverableHandler {
	return &DeliverableHandler{repo: repo, storage: storage}
}

// Upload обрабатывает POST /api/deliverables.
func (h *DeliverableHandler) Upload(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}

	if file.Size == 0 {
		common.RespondBadRequest(c, "файл не может быть пустым")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedDeliverableExtensions[ext] {
		common.RespondBadRequest(c, fmt.Sprintf("неподдерживаемый формат файла. Разрешены: %s", strings.Join(deliverableExtensions(), ", ")))
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer src.Close()

	// Проверяем магические байты, расширению не доверяем
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondBadRequest(c, "не удалось определить тип файла")
		return
	}

	contentType := kind.MIME.Value
	if !allowedDeliverableMimeTypes[contentType] {
		common.RespondBadRequest(c, fmt.Sprintf("неподдерживаемый тип файла (%s)", contentType))
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			common.RespondError(c, http.StatusInternalServerError, "не удалось сбросить позицию файла")
			return
		}
	}

	relativePath, size, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	deliverable := &models.Deliverable{
		UserID:   userID,
		FilePath: filepath.ToSlash(relativePath),
		FileType: contentType,
		FileSize: size,
	}

	if err := h.repo.Create(c.Request.Context(), deliverable); err != nil {
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, deliverable)
}

// deliverableExtensions возвращает список разрешённых расширений.
func deliverableExtensions() []string {
	exts := make([]string, 0, len(allowedDeliverableExtensions))
	for ext := range allowedDeliverableExtensions {
		exts = append(exts, ext)
	}
	return exts
}
