package dynamo

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Error codes DynamoDB reports through the generic smithy API error when no
// modeled exception type applies.
const (
	codeThrottling          = "ThrottlingException"
	codeProvisionedExceeded = "ProvisionedThroughputExceededException"
	codeRequestLimit        = "RequestLimitExceeded"
	codeAccessDenied        = "AccessDeniedException"
)

// IsThrottle reports whether err is a capacity or throttling error that is
// safe to retry.
func IsThrottle(err error) bool {
	var pte *types.ProvisionedThroughputExceededException
	if errors.As(err, &pte) {
		return true
	}
	var rle *types.RequestLimitExceeded
	if errors.As(err, &rle) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case codeThrottling, codeProvisionedExceeded, codeRequestLimit:
			return true
		}
	}
	return false
}

// IsAccessDenied reports whether err is an authorization failure, which is
// what a correctly configured tenant isolation policy produces on a
// cross-tenant read.
func IsAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == codeAccessDenied
	}
	return false
}

// IsConditionalCheckFailed reports whether err is a failed condition
// expression, e.g. attribute_not_exists on an existing item.
func IsConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
