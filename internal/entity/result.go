package entity

import (
	"fmt"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// Result is the outcome of processing one document, whichever stage ended it.
type Result struct {
	Status        constants.Status       `json:"status"`
	DocumentType  constants.DocumentType `json:"type,omitempty"`
	ID            int64                  `json:"id,omitempty"`
	Code          string                 `json:"code,omitempty"`
	Message       string                 `json:"message,omitempty"`
	DateDefaulted bool                   `json:"date_defaulted,omitempty"`
}

func Success(docType constants.DocumentType, id int64) Result {
	return Result{Status: constants.StatusSuccess, DocumentType: docType, ID: id}
}

// Failure builds an error result from err, keeping its AppError code.
func Failure(docType constants.DocumentType, err error) Result {
	return Result{
		Status:       constants.StatusError,
		DocumentType: docType,
		Code:         common.CodeOf(err),
		Message:      err.Error(),
	}
}

func (r Result) OK() bool { return r.Status == constants.StatusSuccess }

// Err returns nil for a success result and an *common.AppError otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	code := r.Code
	if code == "" {
		code = common.CodeInternal
	}
	return common.NewAppError(code, r.Message, nil)
}

func (r Result) String() string {
	if r.OK() {
		s := fmt.Sprintf("status=%s type=%s id=%d", r.Status, r.DocumentType, r.ID)
		if r.DateDefaulted {
			s += " date_defaulted=true"
		}
		return s
	}
	return fmt.Sprintf("status=%s code=%s message=%q", r.Status, r.Code, r.Message)
}
