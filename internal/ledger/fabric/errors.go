package fabric

import (
	"errors"
	"regexp"
	"strings"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yndnr/assetgw-go/internal/core/domain"
)

type stage int

const (
	stageEvaluate stage = iota
	stageEndorse
	stageSubmit
	stageCommitStatus
)

func (s stage) String() string {
	switch s {
	case stageEvaluate:
		return "evaluate"
	case stageEndorse:
		return "endorse"
	case stageSubmit:
		return "submit"
	default:
		return "commit status"
	}
}

// missingTarget matches peer messages for an undeployed chaincode or an
// unknown channel.
var missingTarget = regexp.MustCompile(`(?i)could not find chaincode|make sure the chaincode|chaincode \S+ (not found|is not installed)|channel ['"]?[^\s'"]+['"]? not found|cannot find channel`)

const chaincodeResponsePrefix = "chaincode response "

// classify maps an SDK error raised at st against target
// ("channel/contract") onto the domain taxonomy.
func classify(err error, target string, st stage) error {
	var commitErr *client.CommitError
	if errors.As(err, &commitErr) {
		return domain.ErrTransactionFailed.
			WithDetailsf("transaction %s failed to commit", commitErr.TransactionID).
			WithCause(err)
	}

	var statusErr *client.CommitStatusError
	if errors.As(err, &statusErr) {
		return domain.ErrTransactionUncertain.
			WithDetailsf("transaction %s commit status unknown", statusErr.TransactionID).
			WithCause(err)
	}

	s, _ := status.FromError(err)
	reason := Reason(err)

	switch s.Code() {
	case codes.Unavailable:
		return domain.ErrChannelUnreachable.WithDetailsf("%s failed: peer unavailable", st).WithCause(err)
	case codes.DeadlineExceeded, codes.Canceled:
		if st >= stageSubmit {
			return domain.ErrTransactionUncertain.WithDetailsf("%s timed out", st).WithCause(err)
		}
		return domain.ErrChannelUnreachable.WithDetailsf("%s timed out", st).WithCause(err)
	case codes.NotFound:
		return domain.ErrContractNotFound.WithDetails(target).WithCause(err)
	}

	if missingTarget.MatchString(reason) {
		return domain.ErrContractNotFound.WithDetails(target).WithCause(err)
	}
	return domain.ErrTransactionFailed.WithDetails(reason).WithCause(err)
}

// Reason extracts the most specific failure message from err: the first
// peer error detail when present, otherwise the status message.
func Reason(err error) string {
	s, ok := status.FromError(err)
	if !ok {
		return err.Error()
	}

	for _, d := range s.Details() {
		detail, ok := d.(*gateway.ErrorDetail)
		if !ok || detail.GetMessage() == "" {
			continue
		}
		return trimChaincodeResponse(detail.GetMessage())
	}
	return trimChaincodeResponse(s.Message())
}

// trimChaincodeResponse turns "chaincode response 500, asset X does not
// exist" into "asset X does not exist".
func trimChaincodeResponse(msg string) string {
	rest, ok := strings.CutPrefix(msg, chaincodeResponsePrefix)
	if !ok {
		return msg
	}
	if _, after, found := strings.Cut(rest, ", "); found {
		return after
	}
	return msg
}
