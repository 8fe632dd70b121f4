package utils

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse конверт успешного ответа
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse конверт ошибки; Details несёт список FieldError для ошибок валидации
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// PaginatedResponse страница списка
type PaginatedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int64       `json:"totalPages"`
}

func Success(c *fiber.Ctx, status int, data interface{}, meta ...interface{}) error {
	resp := SuccessResponse{Success: true, Data: data}
	if len(meta) > 0 {
		resp.Meta = meta[0]
	}
	return c.Status(status).JSON(resp)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return Success(c, fiber.StatusCreated, data)
}

// Error renders err under status. The "error" field is the status text, the message
// is err's text, so only errors meant for clients should reach here.
func Error(c *fiber.Ctx, status int, err error, details ...interface{}) error {
	var d interface{}
	if len(details) > 0 {
		d = details[0]
	}
	return fail(c, status, http.StatusText(status), err.Error(), d)
}

func fail(c *fiber.Ctx, status int, kind, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   kind,
		Message: message,
		Details: details,
	})
}

func Paginate(c *fiber.Ctx, data interface{}, total int64, page int, pageSize int) error {
	if data == nil {
		data = []interface{}{}
	}
	var pages int64
	if pageSize > 0 {
		pages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return c.JSON(PaginatedResponse{
		Success:    true,
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	})
}

// ValidationError отвечает 400 со списком ошибок по полям
func ValidationError(c *fiber.Ctx, fields []FieldError) error {
	return fail(c, fiber.StatusBadRequest, "Validation Error", "request validation failed", fields)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusBadRequest, http.StatusText(fiber.StatusBadRequest), message, nil)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusUnauthorized, http.StatusText(fiber.StatusUnauthorized), message, nil)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusForbidden, http.StatusText(fiber.StatusForbidden), message, nil)
}

func NotFound(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusNotFound, http.StatusText(fiber.StatusNotFound), message, nil)
}

func Conflict(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusConflict, http.StatusText(fiber.StatusConflict), message, nil)
}

// InternalServerError never carries details; log the cause before calling it.
func InternalServerError(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusInternalServerError, http.StatusText(fiber.StatusInternalServerError), message, nil)
}
