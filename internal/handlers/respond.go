package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/logging"
	"github.com/voyagery/voyagery-api/internal/middleware"
)

// respondError writes err using the shared error mapping. Unexpected failures are reported with
// full detail server side and reach the client only as a generic message.
func respondError(c *drift.Context, err error) {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.IsInternal() {
		logging.CaptureError("request failed", err,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"user_id", middleware.GetUserID(c),
		)
	}
	_ = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// bind decodes the JSON body into dst and runs its validate tags.
func bind(c *drift.Context, dst any) error {
	if err := c.BindJSON(dst); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation("invalid request")
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperrors.Validation(fe.Field() + " is required")
	case "oneof":
		return apperrors.Validation(fe.Field() + " must be one of: " + fe.Param())
	case "max":
		return apperrors.Validation(fe.Field() + " is too long")
	case "min":
		return apperrors.Validation(fe.Field() + " is too short")
	}
	return apperrors.Validation(fe.Field() + " is invalid")
}

func pathUUID(c *drift.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid " + name)
	}
	return id, nil
}

func queryUUID(c *drift.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation("invalid " + name)
	}
	return &id, nil
}
