package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type rootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// Root answers GET /api with the service banner.
//
// @Summary      API banner
// @Tags         root
// @Produce      json
// @Success      200  {object}  rootResponse
// @Router       /api [get]
func Root(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, rootResponse{
			Message: "API FATEC 100% funcional🚀",
			Version: version,
		})
	}
}
