// Package services holds the business rules behind the HTTP handlers. Rule
// violations are returned as *fiber.Error so handlers can pass them through;
// anything else is an infrastructure failure wrapped with context.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/database"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

func db(ctx context.Context) *gorm.DB {
	return database.DB.WithContext(ctx)
}

func currency() string {
	return config.Get("PAYMENT_CURRENCY", "INR")
}

func notFound(what string) *fiber.Error {
	return fiber.NewError(fiber.StatusNotFound, what+" not found")
}

func conflict(msg string) *fiber.Error {
	return fiber.NewError(fiber.StatusConflict, msg)
}

func badRequest(msg string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

func forbidden(msg string) *fiber.Error {
	return fiber.NewError(fiber.StatusForbidden, msg)
}

// lookup maps gorm.ErrRecordNotFound to a 404 for what and wraps anything else.
func lookup(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return pkgerrors.Wrapf(err, "load %s", strings.ToLower(what))
}

func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return err
	}
	return pkgerrors.Wrap(err, msg)
}

// ParseID parses a path or body id, answering 400 on garbage.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("Invalid id")
	}
	return id, nil
}

// likePattern builds a case-insensitive LIKE pattern for LOWER(column) LIKE ?.
func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

// clip shortens s to at most n characters without splitting a rune.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Paged is a page of rows plus the total count for the response meta.
type Paged[T any] struct {
	Items []T
	Total int64
}

func paginate[T any](q *gorm.DB, p utils.Page, order string) (Paged[T], error) {
	var out Paged[T]
	if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return out, err
	}
	out.Items = make([]T, 0, p.Limit)
	err := q.Order(order).Offset(p.Offset()).Limit(p.Limit).Find(&out.Items).Error
	return out, err
}
