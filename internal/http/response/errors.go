package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
)

// StatusClientClosedRequest is the nginx convention for a caller that went away.
const StatusClientClosedRequest = 499

func StatusForCode(code string) int {
	switch code {
	case flowerr.CodeValidation:
		return http.StatusBadRequest
	case flowerr.CodeTemplate:
		return http.StatusInternalServerError
	case flowerr.CodeBackendUnavailable:
		return http.StatusServiceUnavailable
	case flowerr.CodeSchemaMismatch, flowerr.CodeEmptyResponse:
		return http.StatusBadGateway
	case flowerr.CodeSuperseded:
		return http.StatusConflict
	case flowerr.CodeCancelled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondFlowError writes err using the flow error taxonomy. Internal errors
// are not echoed to the client.
func RespondFlowError(c *gin.Context, err error) {
	code := flowerr.Code(err)
	apiErr := APIError{Message: err.Error(), Code: code}

	var ve *flowerr.ValidationError
	if code == flowerr.CodeValidation && errors.As(err, &ve) {
		apiErr.Field = ve.Field
	}
	if code == flowerr.CodeInternal {
		apiErr.Message = "internal error"
	}
	if code == flowerr.CodeCancelled {
		apiErr.Code = ""
	}
	c.AbortWithStatusJSON(StatusForCode(code), ErrorEnvelope{Error: apiErr})
}
