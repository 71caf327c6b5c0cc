package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/dto"
	"github.com/birlikkoshan/todo-api/internal/metrics"
	"github.com/birlikkoshan/todo-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var registerOnce sync.Once

// RegisterValidation makes validator report JSON/form names instead of Go field
// names and adds the "timestamp" tag for lenient date fields.
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		v.RegisterCustomTypeFunc(timestampText, dto.Timestamp{}, dto.Nullable[dto.Timestamp]{})
		_ = v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
			_, err := dto.ParseTimestamp(fl.Field().String())
			return err == nil
		})
	})
}

// timestampText hands validator the raw text of a timestamp field.
func timestampText(f reflect.Value) interface{} {
	switch ts := f.Interface().(type) {
	case dto.Timestamp:
		return ts.Raw()
	case dto.Nullable[dto.Timestamp]:
		return ts.Value.Raw()
	}
	return nil
}

// writeError maps an error to the {"detail": ...} envelope.
// Anything that is not a client error is logged and reported generically.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var (
		ve *dom.ValidationError
		nf *service.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		metrics.TrackError("validation")
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Detail: ve.Fields})
	case errors.As(err, &nf):
		metrics.TrackError("not_found")
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Detail: "Todos not found: " + strings.Join(nf.IDs, ", ")})
	case errors.Is(err, service.ErrNotFound):
		metrics.TrackError("not_found")
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Detail: "Todo not found"})
	default:
		metrics.TrackError("internal")
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: "Internal server error"})
	}
}

// bindError converts gin binding failures into a ValidationError.
func bindError(err error) error {
	var (
		ve   validator.ValidationErrors
		typ  *json.UnmarshalTypeError
		syn  *json.SyntaxError
		num  *strconv.NumError
		dval *dom.ValidationError
	)
	switch {
	case errors.As(err, &ve):
		var out dom.ValidationError
		for _, fe := range ve {
			out.Add(fieldPath(fe), fieldMessage(fe))
		}
		return &out
	case errors.As(err, &dval):
		return dval
	case errors.As(err, &typ):
		field := typ.Field
		if field == "" {
			field = "body"
		}
		return dom.NewValidationError(field, fmt.Sprintf("must be of type %s", typ.Type))
	case errors.As(err, &syn):
		return dom.NewValidationError("body", "malformed JSON")
	case errors.Is(err, io.EOF):
		return dom.NewValidationError("body", "must not be empty")
	case errors.As(err, &num):
		return dom.NewValidationError("query", fmt.Sprintf("invalid number %q", num.Num))
	}
	return dom.NewValidationError("body", err.Error())
}

// fieldPath drops the top-level struct name: "BulkCreateRequest.todos[1].title" -> "todos[1].title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " items"
		}
		return "must be at least " + fe.Param() + " characters"
	case "timestamp":
		return dto.TimestampHint
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	}
	return "failed " + fe.Tag() + " validation"
}
