package library

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	codeRequestFailed   = "REQUEST_FAILED"
	codeRecordNotFound  = "RECORD_NOT_FOUND"
	codeDraftInvalid    = "DRAFT_INVALID"
	codeBadAttachment   = "ATTACHMENT_UNSUPPORTED"
	codeResponseInvalid = "RESPONSE_INVALID"
)

var (
	// ErrRequestFailed marks a backend call that did not complete or
	// returned a non-2xx status.
	ErrRequestFailed = errors.New("library: backend request failed")
	// ErrRecordNotFound is returned when an id is absent from the loaded collection.
	ErrRecordNotFound = errors.New("library: record not found")
	// ErrDraftInvalid is returned when submit is attempted with required fields empty.
	ErrDraftInvalid = errors.New("library: draft is missing required fields")
	// ErrUnsupportedAttachment is returned for files that are not jpeg or png images.
	ErrUnsupportedAttachment = errors.New("library: unsupported attachment type")
	// ErrSuperseded is returned when a newer request replaced this one before it resolved.
	ErrSuperseded = errors.New("library: response superseded by a newer request")
	// ErrNoSelection is returned by operations that need a selected record.
	ErrNoSelection = errors.New("library: no record selected")
)

// GenericFailureMessage is shown for every failed mutation, whatever the cause.
const GenericFailureMessage = "Something went wrong, please try again"

func wrapRequestError(err error, message string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	if !errors.Is(err, ErrRequestFailed) {
		err = fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, message).
		WithTextCode(codeRequestFailed)
}

func wrapResponseError(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, message).
		WithTextCode(codeResponseInvalid)
}

func notFoundError(id string) error {
	return goerrors.Wrap(ErrRecordNotFound, goerrors.CategoryNotFound, "record "+id+" is not in the loaded collection").
		WithTextCode(codeRecordNotFound)
}

func draftError(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(errors.Join(ErrDraftInvalid, err), goerrors.CategoryValidation, "draft validation failed").
		WithTextCode(codeDraftInvalid)
}

func attachmentError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "attachment rejected").
		WithTextCode(codeBadAttachment)
}
