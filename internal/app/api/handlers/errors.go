package handlers

import (
	"errors"

	"github.com/fatflowers/fitgate/internal/app/service/subscription"
	"github.com/fatflowers/fitgate/pkg/response"
)

// errorCode maps service errors onto envelope codes.
func errorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, subscription.ErrUserNotFound):
		return response.APIResponseCodeUserNotFound
	case errors.Is(err, subscription.ErrSubscriptionCanceled):
		return response.APIResponseCodeSubscriptionCanceled
	case errors.Is(err, subscription.ErrUserExists):
		return response.APIResponseCodeBadRequest
	case errors.Is(err, subscription.ErrEntitlementCheckFailed):
		return response.APIResponseCodeEntitlementCheckFailed
	default:
		return response.APIResponseCodeError
	}
}
