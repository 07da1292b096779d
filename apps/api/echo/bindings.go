package echoapi

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/swaaagray/saoms/core"
)

// respond wraps every success payload in the common envelope.
func respond(ctx echo.Context, code int, payload echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return ctx.JSON(code, body)
}

func respondMessage(ctx echo.Context, code int, msg string) error {
	return respond(ctx, code, echo.Map{"message": msg})
}

// pageParam reads the 1-based page number, defaulting to the first page.
func pageParam(ctx echo.Context) int {
	if page, err := strconv.Atoi(ctx.QueryParam("page")); err == nil && page > 0 {
		return page
	}
	return 1
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token          string `json:"token"`
		MustUpdateInfo bool   `json:"must_update_info"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
