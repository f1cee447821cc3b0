package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsInnerCode(t *testing.T) {
	base := NotFound("chart")
	wrapped := Wrapf(base, "loading chart %s", "abc")

	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
	assert.Contains(t, wrapped.Error(), "loading chart abc")
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapPlainError(t *testing.T) {
	err := Wrap(stderrors.New("boom"), "context")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Nil(t, Wrap(nil, "x"))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("bad axis")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(WithCode(CodeSuperseded, stderrors.New("stale"))))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(SourceError("excel", stderrors.New("eof"))))
}
