package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecosrev/ecosrev-api/internal/api/metrics"
	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const (
	imageField          = "image"
	msgImageNotFound    = "Registro não encontrado"
	msgImageUploadError = "Erro ao enviar imagem"
)

type UploadHandler struct {
	service ports.ImageService
}

func NewUploadHandler(service ports.ImageService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Upload stores the caller's profile picture, replacing the previous one.
//
// @Summary      Upload profile picture
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Security     AccessToken
// @Param        image  formData  file  true  "jpg, jpeg, png or webp, up to 5 MB"
// @Success      201    {object}  domain.Image
// @Success      200    {object}  domain.Image
// @Failure      400    {object}  errorResponse
// @Failure      500    {object}  detailedErrorResponse
// @Router       /api/upload/image [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(imageField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Nenhuma imagem enviada"})
	}
	if fh.Size > domain.MaxImageSize {
		metrics.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "A imagem deve ter no máximo 5 MB"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Nenhuma imagem enviada"})
	}
	defer f.Close()

	res, err := h.service.Upload(c.Request().Context(), caller.ID, ports.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrImageFormat):
		metrics.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Formato de imagem não suportado. Use jpg, jpeg, png ou webp"})
	case errors.Is(err, domain.ErrImageTooLarge):
		metrics.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "A imagem deve ter no máximo 5 MB"})
	default:
		metrics.ImageUploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, detailedErrorResponse{Error: msgImageUploadError, Details: err.Error()})
	}

	if res.Replaced {
		metrics.ImageUploadsTotal.WithLabelValues("replaced").Inc()
		return c.JSON(http.StatusOK, res.Image)
	}
	metrics.ImageUploadsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, res.Image)
}

// Get returns image metadata by row id.
//
// @Summary      Image metadata
// @Tags         upload
// @Produce      json
// @Param        id   path      int  true  "Image id"
// @Success      200  {object}  domain.Image
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/upload/{id} [get]
func (h *UploadHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgImageNotFound})
	}
	img, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: msgImageNotFound})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, img)
}

// Delete removes the stored object and then its metadata.
//
// @Summary      Delete an image
// @Tags         upload
// @Produce      json
// @Security     AccessToken
// @Param        id   path      int  true  "Image id"
// @Success      200  {object}  msgResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  detailedErrorResponse
// @Router       /api/upload/{id} [delete]
func (h *UploadHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgImageNotFound})
	}

	err := h.service.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, msgResponse{Msg: "Arquivo e metadados excluídos com sucesso"})
	case errors.Is(err, domain.ErrImageNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgImageNotFound})
	case errors.Is(err, domain.ErrImageVanished):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "Registro não encontrado ao tentar excluir do DB"})
	case errors.Is(err, domain.ErrStorageProvider):
		return c.JSON(http.StatusInternalServerError, detailedErrorResponse{
			Error:   "Erro ao remover arquivo do armazenamento",
			Details: err.Error(),
		})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// DownloadAPK returns a short-lived link to the mobile app package.
//
// @Summary      APK download link
// @Tags         upload
// @Produce      json
// @Success      200  {object}  urlResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/upload/download-apk [get]
func (h *UploadHandler) DownloadAPK(c echo.Context) error {
	url, err := h.service.APKDownloadURL(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Erro ao gerar link de download."})
	}
	return c.JSON(http.StatusOK, urlResponse{URL: url})
}
