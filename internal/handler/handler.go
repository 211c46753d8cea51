// Package handler holds the gin HTTP handlers. Handlers only translate
// between HTTP and services; authorization decisions live in the services.
package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"dashboard_api/internal/apperr"
	"dashboard_api/internal/middleware"
	"dashboard_api/internal/model"
	"dashboard_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags and reports field
// names by their JSON name. Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected binding validator engine")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		err = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			_, ok := model.ParseRole(fl.Field().String())
			return ok
		})
	})
	return err
}

// bindJSON decodes the body into dst and writes the error response on failure.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		middleware.AbortJSON(c, http.StatusRequestEntityTooLarge, middleware.CodePayloadTooLarge, "Request body too large")
		return false
	}
	middleware.AbortWithError(c, bindError(err))
	return false
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return apperr.Invalid("%s is required", fe.Field())
		case "role":
			return service.ErrInvalidRole
		default:
			return apperr.Invalid("%s is invalid", fe.Field())
		}
	}
	return apperr.Invalid("Invalid request body")
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.AbortWithError(c, apperr.Invalid("Invalid %s", name))
		return 0, false
	}
	return id, true
}

// actor returns the authenticated actor or aborts with 401.
func actor(c *gin.Context) (model.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		middleware.AbortJSON(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "Authentication required")
		return model.Actor{}, false
	}
	return a, true
}

func parseAuthorQuery(c *gin.Context) (*int64, error) {
	raw := c.Query("author")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperr.Invalid("Invalid author %q", raw)
	}
	return &id, nil
}
