package gateway

import "github.com/yndnr/assetgw-go/internal/core/domain"

// Dispatch outcome labels.
const (
	OutcomeSucceeded          = "succeeded"
	OutcomeInvalid            = "invalid"
	OutcomeIdentityNotFound   = "identity_not_found"
	OutcomeChannelUnreachable = "channel_unreachable"
	OutcomeContractNotFound   = "contract_not_found"
	OutcomeFailed             = "failed"
	OutcomeUncertain          = "uncertain"
	OutcomeInternal           = "internal"
)

// Outcome returns the metric label for a dispatch error.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSucceeded
	}
	switch domain.GetErrorCode(err) {
	case domain.ErrInvalidArgument.Code, domain.ErrMissingArgument.Code:
		return OutcomeInvalid
	case domain.ErrIdentityNotFound.Code, domain.ErrIdentityInvalid.Code:
		return OutcomeIdentityNotFound
	case domain.ErrChannelUnreachable.Code:
		return OutcomeChannelUnreachable
	case domain.ErrContractNotFound.Code:
		return OutcomeContractNotFound
	case domain.ErrTransactionFailed.Code:
		return OutcomeFailed
	case domain.ErrTransactionUncertain.Code:
		return OutcomeUncertain
	default:
		return OutcomeInternal
	}
}
