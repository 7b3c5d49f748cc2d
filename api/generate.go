// Package api holds the OpenAPI document of the probe server and the code
// generated from it.
package api

//go:generate go tool oapi-codegen -config oapi-codegen.yaml openapi.yaml
