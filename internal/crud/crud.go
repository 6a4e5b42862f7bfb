// Package crud is the request gate shared by resource handlers. An Operation
// resolves the caller, checks the required grants and then validates path and
// body input, producing exactly one Outcome per call.
package crud

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/purchase-service/internal/apperror"
	"github.com/eaglebank/purchase-service/internal/schema"
	"github.com/eaglebank/purchase-service/internal/security"
)

// Bundle is the validated request handed to a handler.
type Bundle struct {
	Credential security.Credential
	Params     schema.Values
}

// Outcome is either Ready or Rejected.
type Outcome interface {
	outcome()
}

type Ready struct {
	Bundle Bundle
}

type Rejected struct {
	Err *apperror.Error
}

func (Ready) outcome()    {}
func (Rejected) outcome() {}

// Operation guards one handler with a fixed set of required grants.
type Operation struct {
	validator *schema.Validator
	required  []security.Grant
}

func New(v *schema.Validator, required ...security.Grant) *Operation {
	return &Operation{validator: v, required: required}
}

// List checks the caller only; Params is empty.
func (o *Operation) List(c *gin.Context) Outcome {
	cred, err := o.gate(c)
	if err != nil {
		return Rejected{Err: err}
	}
	return Ready{Bundle: Bundle{Credential: cred, Params: schema.Values{}}}
}

// Create validates the JSON body against body.
func (o *Operation) Create(c *gin.Context, body schema.Schema) Outcome {
	cred, err := o.gate(c)
	if err != nil {
		return Rejected{Err: err}
	}
	params, fieldErrs := o.validateBody(c, body)
	if len(fieldErrs) > 0 {
		return Rejected{Err: apperror.Validation(fieldErrs)}
	}
	return Ready{Bundle: Bundle{Credential: cred, Params: params}}
}

// Read validates path parameters against id.
func (o *Operation) Read(c *gin.Context, id schema.Schema) Outcome {
	return o.identified(c, id)
}

// Update validates both the path identifier and the body. Failures from both
// are reported together; on success the params are merged.
func (o *Operation) Update(c *gin.Context, id, body schema.Schema) Outcome {
	cred, err := o.gate(c)
	if err != nil {
		return Rejected{Err: err}
	}
	idParams, idErrs := o.validator.Validate(pathParams(c), id)
	bodyParams, bodyErrs := o.validateBody(c, body)
	if fieldErrs := append(idErrs, bodyErrs...); len(fieldErrs) > 0 {
		return Rejected{Err: apperror.Validation(fieldErrs)}
	}
	return Ready{Bundle: Bundle{Credential: cred, Params: bodyParams.Merge(idParams)}}
}

// Delete validates path parameters against id.
func (o *Operation) Delete(c *gin.Context, id schema.Schema) Outcome {
	return o.identified(c, id)
}

func (o *Operation) identified(c *gin.Context, id schema.Schema) Outcome {
	cred, err := o.gate(c)
	if err != nil {
		return Rejected{Err: err}
	}
	params, fieldErrs := o.validator.Validate(pathParams(c), id)
	if len(fieldErrs) > 0 {
		return Rejected{Err: apperror.Validation(fieldErrs)}
	}
	return Ready{Bundle: Bundle{Credential: cred, Params: params}}
}

// gate resolves the credential and runs the authorization check. It always
// runs before any input is inspected.
func (o *Operation) gate(c *gin.Context) (security.Credential, *apperror.Error) {
	cred, err := security.CredentialFromContext(c)
	if err != nil {
		return security.Credential{}, err
	}
	if err := security.Authorize(cred, o.required...); err != nil {
		return security.Credential{}, err
	}
	return cred, nil
}

func (o *Operation) validateBody(c *gin.Context, s schema.Schema) (schema.Values, []apperror.FieldError) {
	input, fieldErr := decodeBody(c)
	if fieldErr != nil {
		return nil, []apperror.FieldError{*fieldErr}
	}
	return o.validator.Validate(input, s)
}

func pathParams(c *gin.Context) map[string]any {
	params := make(map[string]any, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}
	return params
}

// decodeBody reads the request body as a JSON object. An empty body is an
// empty object so that missing fields are reported individually.
func decodeBody(c *gin.Context) (map[string]any, *apperror.FieldError) {
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &apperror.FieldError{Field: "body", Message: "Request body too large", Type: "max"}
		}
		return nil, &apperror.FieldError{Field: "body", Message: "Unable to read request body", Type: "body"}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &apperror.FieldError{Field: "body", Message: "Malformed JSON", Type: "json"}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &apperror.FieldError{Field: "body", Message: "Expected object", Type: "object"}
	}
	return obj, nil
}
