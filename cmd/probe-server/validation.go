package main

import (
	"errors"
	"fmt"
	"strings"

	"apiprobe/api/generated"
	"apiprobe/pkg/apperr"
	"apiprobe/pkg/auth"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// bearerAuth enforces the token only on operations whose wrapper declared
// bearerAuth scopes
func bearerAuth(v auth.Validator) generated.MiddlewareFunc {
	requireBearer := auth.RequireBearer(v)
	return func(c *gin.Context) {
		if _, secured := c.Get(generated.BearerAuthScopes); !secured {
			return
		}
		requireBearer(c)
	}
}

// requestValidator checks parameters and request bodies against doc.
// Authentication is left to bearerAuth, which runs first.
func requestValidator(doc *openapi3.T) (generated.MiddlewareFunc, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAPI router: %w", err)
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(c *gin.Context) {
		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.CodeNotFound), generated.ErrorResponse{
				Error:            string(apperr.CodeNotFound),
				ErrorDescription: err.Error(),
			})
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options:    options,
		}
		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.CodeValidation), generated.ErrorResponse{
				Error:            string(apperr.CodeValidation),
				ErrorDescription: validationMessage(err),
			})
		}
	}, nil
}

// validationMessage reports schema failures as "<field>: <reason>" without
// the schema and value dumps kin-openapi appends by default
func validationMessage(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) && schemaErr.Reason != "" {
		field := strings.Join(schemaErr.JSONPointer(), ".")
		if field == "" {
			return "request body: " + schemaErr.Reason
		}
		return field + ": " + schemaErr.Reason
	}
	return err.Error()
}
