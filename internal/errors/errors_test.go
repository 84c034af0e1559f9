package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"gopress/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrap_MapsDomainSentinels(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{core.NewDimensionError("monitoring", 2, 3), CodeInvalidDimension, http.StatusBadRequest},
		{core.NewArgumentError("epsilon", "must be non-negative"), CodeInvalidArgument, http.StatusBadRequest},
		{core.NewParseError(4, "no arrow"), CodeInvalidArgument, http.StatusBadRequest},
		{core.ErrRunNotFound, CodeNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: 0 of 5", core.ErrUnstable), CodeSimulationFailed, http.StatusUnprocessableEntity},
		{stderrors.New("boom"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		wrapped := Wrap(tt.err, "tally failed")
		assert.Equal(t, tt.code, GetCode(wrapped), tt.err.Error())
		assert.Equal(t, tt.status, HTTPStatus(wrapped), tt.err.Error())
		assert.True(t, stderrors.Is(wrapped, tt.err))
	}
}

func TestWrap_KeepsInnerAppErrorCode(t *testing.T) {
	inner := ConfigInvalid("PORT is required")
	outer := Wrapf(inner, "loading %s", "server")
	assert.Equal(t, CodeConfigInvalid, GetCode(outer))
	assert.Equal(t, "loading server: PORT is required", outer.Error())
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestGetCode_Unknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeNotFound, GetCode(core.ErrNoEnsemble))
	assert.True(t, IsAppError(DatabaseError("insert failed", stderrors.New("x"))))
}
